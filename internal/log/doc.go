// Package log provides secure logging built on log/slog, plus the
// sensitivity rules shared with evidence redaction.
//
// The SecureHandler masks attribute values whose key names credential or
// session material (Authorization, Cookie, tokens, session identifiers),
// values that look like secrets (JWTs, bearer tokens, long opaque keys), and
// sensitive query parameters inside URL attributes. The same rules are
// exported through IsSensitiveKey so that headers captured from tracker
// requests are dropped before they appear in a report.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Debug("request captured",
//	    "url", "https://t.example/collect?session=abc", // session value masked
//	    "cookie", "_ga=GA1.2.3",                        // masked
//	)
package log
