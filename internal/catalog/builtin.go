package catalog

// builtinSignatures returns the signatures shipped with trackerscan.
// URL patterns are matched against every captured request, so they should be
// specific enough not to collide with unrelated hosts.
func builtinSignatures() []ToolSignature {
	return []ToolSignature{
		{
			Name:     "Google Tag Manager",
			Category: CategoryTagManager,
			URLPatterns: []string{
				"googletagmanager.com/gtm.js",
				"googletagmanager.com/ns",
			},
			DOMPatterns: []string{
				`script[src*="googletagmanager.com/gtm.js"]`,
				`iframe[src*="googletagmanager.com/ns.html"]`,
			},
			ScriptPatterns: []string{
				"googletagmanager.com/gtm.js",
				"gtm.start",
			},
			GlobalVars: []string{"google_tag_manager", "dataLayer"},
		},
		{
			Name:     "Google Analytics 4",
			Category: CategoryAnalytics,
			URLPatterns: []string{
				"google-analytics.com/g/collect",
				"analytics.google.com/g/collect",
				"googletagmanager.com/gtag/js?id=G-",
			},
			DOMPatterns: []string{
				`script[src*="googletagmanager.com/gtag/js?id=G-"]`,
			},
			ScriptPatterns: []string{
				"gtag('config', 'G-",
				`gtag("config", "G-`,
			},
			GlobalVars: []string{"gtag"},
		},
		{
			Name:     "Universal Analytics",
			Category: CategoryAnalytics,
			URLPatterns: []string{
				"google-analytics.com/analytics.js",
				"google-analytics.com/collect",
				"stats.g.doubleclick.net",
			},
			DOMPatterns: []string{
				`script[src*="google-analytics.com/analytics.js"]`,
			},
			ScriptPatterns: []string{
				"google-analytics.com/analytics.js",
				"ga('create'",
			},
			GlobalVars: []string{"GoogleAnalyticsObject", "ga"},
		},
		{
			Name:     "Meta Pixel",
			Category: CategoryAdvertising,
			URLPatterns: []string{
				"connect.facebook.net/signals",
				"facebook.com/tr/",
				"connect.facebook.net/en_US/fbevents.js",
			},
			DOMPatterns: []string{
				`script[src*="connect.facebook.net"]`,
				`img[src*="facebook.com/tr"]`,
			},
			ScriptPatterns: []string{
				"fbq('init'",
				"connect.facebook.net/en_US/fbevents.js",
			},
			GlobalVars: []string{"fbq", "_fbq"},
		},
		{
			Name:     "Hotjar",
			Category: CategorySessionReplay,
			URLPatterns: []string{
				"hotjar.com/api",
				"vars.hotjar.com",
				"static.hotjar.com/c",
			},
			DOMPatterns: []string{
				`script[src*="static.hotjar.com"]`,
			},
			ScriptPatterns: []string{
				"static.hotjar.com/c/hotjar-",
				"_hjSettings",
			},
			GlobalVars: []string{"hj", "_hjSettings"},
		},
		{
			Name:     "LinkedIn Insight",
			Category: CategoryAdvertising,
			URLPatterns: []string{
				"snap.licdn.com/li.lms-analytics",
				"platform.linkedin.com",
			},
			DOMPatterns: []string{
				`script[src*="snap.licdn.com"]`,
				`img[src*="px.ads.linkedin.com"]`,
			},
			ScriptPatterns: []string{
				"_linkedin_partner_id",
				"snap.licdn.com/li.lms-analytics",
			},
			GlobalVars: []string{"_linkedin_data_partner_ids", "lintrk"},
		},
		{
			Name:     "TikTok Pixel",
			Category: CategoryAdvertising,
			URLPatterns: []string{
				"analytics.tiktok.com/i18n/pixel",
				"analytics.tiktok.com/api",
			},
			DOMPatterns: []string{
				`script[src*="analytics.tiktok.com"]`,
			},
			ScriptPatterns: []string{
				"analytics.tiktok.com/i18n/pixel",
				"ttq.load(",
			},
			GlobalVars: []string{"ttq", "TiktokAnalyticsObject"},
		},
		{
			Name:     "Twitter Pixel",
			Category: CategoryAdvertising,
			URLPatterns: []string{
				"static.ads-twitter.com/uwt.js",
				"analytics.twitter.com",
			},
			DOMPatterns: []string{
				`script[src*="static.ads-twitter.com"]`,
			},
			ScriptPatterns: []string{
				"static.ads-twitter.com/uwt.js",
				"twq('config'",
			},
			GlobalVars: []string{"twq"},
		},
		{
			Name:     "Microsoft Ads",
			Category: CategoryAdvertising,
			URLPatterns: []string{
				"bat.bing.com/bat.js",
				"clarity.ms",
			},
			DOMPatterns: []string{
				`script[src*="bat.bing.com"]`,
				`script[src*="clarity.ms/tag"]`,
			},
			ScriptPatterns: []string{
				"bat.bing.com/bat.js",
				"clarity.ms/tag/",
			},
			GlobalVars: []string{"uetq", "UET", "clarity"},
		},
		{
			Name:     "Google Ads",
			Category: CategoryAdvertising,
			URLPatterns: []string{
				"googleadservices.com/pagead",
				"google.com/pagead",
				"googleads.g.doubleclick.net",
			},
			DOMPatterns: []string{
				`script[src*="googleadservices.com/pagead"]`,
				`iframe[src*="googleads.g.doubleclick.net"]`,
			},
			ScriptPatterns: []string{
				"google_conversion_id",
				"gtag('config', 'AW-",
			},
			GlobalVars: []string{"google_trackConversion"},
		},
	}
}
