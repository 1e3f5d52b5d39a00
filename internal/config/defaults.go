package config

// DefaultProviderURL is the default wallet provider endpoint.
// Frame exposes an EIP-1193 compatible JSON-RPC provider on this port.
const DefaultProviderURL = "http://127.0.0.1:1248"

// Default store addresses.
const (
	DefaultCafeAddress    = "0x70C8de2fca710c9a9dA4Eac343a0CA4DBDE387fe"
	DefaultFactoryAddress = "0x3B750d93970f42b6D08d6e8Ea7544Fb536C9927b"
)

// DefaultMaxProbe caps registry probing.
const DefaultMaxProbe = 100

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		Version: 1,
		Home:    "~/.brewbar",
		Provider: ProviderConfig{
			URL:            DefaultProviderURL,
			TimeoutSeconds: 0,
			RatePerSecond:  10,
			Burst:          20,
			RetryReads:     true,
		},
		Store: StoreConfig{
			CafeAddress:    DefaultCafeAddress,
			FactoryAddress: DefaultFactoryAddress,
		},
		Registry: RegistryConfig{
			MaxProbe:        DefaultMaxProbe,
			StrictProbe:     false,
			PollIntervalMs:  1000,
			ReadConcurrency: 4,
		},
		Output: OutputConfig{
			DefaultFormat: "auto",
			Color:         "auto",
			Verbose:       false,
			QR:            true,
		},
		Logging: LoggingConfig{
			Level: "error",
			File:  "~/.brewbar/brewbar.log",
		},
	}
}
