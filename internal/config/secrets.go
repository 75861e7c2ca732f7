package config

// RedactedConfig returns a copy of cfg safe to log: secrets become "***" and
// the RPC URL keeps only its scheme and host, since providers embed API keys
// in the path.
func RedactedConfig(cfg *Config) Config {
	out := *cfg

	out.Chain.RPCURL = redactURL(cfg.Chain.RPCURL)

	redact(&out.Redis.Password)
	out.Redis.URL = redactURL(cfg.Redis.URL)

	redact(&out.Server.APIKey)

	redact(&out.Notify.TelegramToken)
	redact(&out.Notify.DiscordWebhookURL)

	out.Server.CORSOrigins = cloneStrings(cfg.Server.CORSOrigins)
	out.Watch.Addresses = cloneStrings(cfg.Watch.Addresses)
	out.Notify.Events = cloneStrings(cfg.Notify.Events)

	return out
}

const redacted = "***"

func redact(s *string) {
	if *s != "" {
		*s = redacted
	}
}
