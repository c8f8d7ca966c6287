package builder

import "time"

func (b *Builder) Port(port string) *Builder {
	b.cfg.Server.Port = port
	return b
}

func (b *Builder) AllowedOrigins(origins string) *Builder {
	b.cfg.Server.AllowedOrigins = origins
	return b
}

func (b *Builder) Environment(env string) *Builder {
	b.cfg.Server.Environment = env
	return b
}

func (b *Builder) LogLevel(level string) *Builder {
	b.cfg.Server.LogLevel = level
	return b
}

// WithRateLimit caps requests per client per minute.
func (b *Builder) WithRateLimit(perMinute int) *Builder {
	b.cfg.Server.RateLimitPerMin = perMinute
	return b
}

func (b *Builder) WithTimeout(timeout time.Duration) *Builder {
	b.cfg.Server.RequestTimeoutMs = int(timeout.Milliseconds())
	return b
}

// WithAdminSecret protects /admin with HS256 tokens issued for issuer.
func (b *Builder) WithAdminSecret(secret, issuer string) *Builder {
	b.cfg.Admin.JWTSecret = secret
	b.cfg.Admin.Issuer = issuer
	return b
}

func (b *Builder) WithMetrics(enabled bool, path string) *Builder {
	b.cfg.Metrics.Enabled = enabled
	b.cfg.Metrics.Path = path
	return b
}
