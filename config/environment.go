package config

import "os"

type Environment struct {
	DatabaseURL   string
	Port          string
	IsDevelopment bool
	Domain        string
	CookieSecure  bool
}

// Load reads configuration from the environment. If no cookie domain is set
// we're in development.
func Load() Environment {
	domain := os.Getenv("COOKIE_DOMAIN")

	isDev := domain == ""
	if isDev {
		domain = "localhost"
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // fallback port for local development
	}

	return Environment{
		DatabaseURL:   os.Getenv("DB_URL"),
		Port:          port,
		IsDevelopment: isDev,
		Domain:        domain,
		CookieSecure:  !isDev,
	}
}
