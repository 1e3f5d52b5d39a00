package cli

import (
	"github.com/mrz1836/brewbar/internal/catalog"
	"github.com/mrz1836/brewbar/internal/config"
	"github.com/mrz1836/brewbar/internal/metrics"
	"github.com/mrz1836/brewbar/internal/output"
	"github.com/mrz1836/brewbar/internal/provider"
	"github.com/mrz1836/brewbar/internal/registry"
	"github.com/mrz1836/brewbar/internal/session"
	"github.com/mrz1836/brewbar/internal/storefront"
)

// CommandContext holds dependencies for CLI commands.
// The wallet gateway and controller are built on first use.
type CommandContext struct {
	Cfg       *config.Config
	Logger    *config.Logger
	Formatter *output.Formatter
	Metrics   *metrics.Metrics
	Menu      *catalog.Catalog

	gateway    *provider.Gateway
	controller *storefront.Controller
}

// NewCommandContext creates a context with the given dependencies.
func NewCommandContext(cfg *config.Config, logger *config.Logger, formatter *output.Formatter) *CommandContext {
	return &CommandContext{
		Cfg:       cfg,
		Logger:    logger,
		Formatter: formatter,
		Metrics:   metrics.Global,
		Menu:      catalog.Default(),
	}
}

// WithMetrics sets the metrics sink.
func (c *CommandContext) WithMetrics(m *metrics.Metrics) *CommandContext {
	c.Metrics = m
	return c
}

// Gateway returns the wallet gateway for the configured provider.
func (c *CommandContext) Gateway() *provider.Gateway {
	if c.gateway == nil {
		c.gateway = provider.NewFromConfig(c.Cfg, c.Metrics, c.Logger)
	}
	return c.gateway
}

// Controller returns the storefront controller. Every call returns the same
// controller, so a shell keeps one wallet session for its lifetime.
func (c *CommandContext) Controller() (*storefront.Controller, error) {
	if c.controller != nil {
		return c.controller, nil
	}

	gw := c.Gateway()
	reg, err := registry.New(gw, c.Cfg.GetFactoryAddress(), registry.OptionsFromConfig(c.Cfg.Registry), c.Logger, c.Metrics)
	if err != nil {
		return nil, err
	}

	c.controller = storefront.New(gw, reg, session.New(), c.Menu, c.Cfg.GetCafeAddress(),
		storefront.WithChainID(c.Cfg.Store.ChainID),
		storefront.WithMetrics(c.Metrics),
		storefront.WithLogger(c.Logger),
	)
	return c.controller, nil
}

// Close releases idle provider connections.
func (c *CommandContext) Close() {
	if c.gateway != nil {
		c.gateway.Close()
	}
}
