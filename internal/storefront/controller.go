// Package storefront turns user actions into wallet, registry and catalog
// calls and reports each outcome as a notice. Errors never escape an action.
package storefront

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/mrz1836/brewbar/internal/catalog"
	"github.com/mrz1836/brewbar/internal/chain"
	"github.com/mrz1836/brewbar/internal/config"
	"github.com/mrz1836/brewbar/internal/metrics"
	"github.com/mrz1836/brewbar/internal/output"
	"github.com/mrz1836/brewbar/internal/provider"
	"github.com/mrz1836/brewbar/internal/scan"
	"github.com/mrz1836/brewbar/internal/session"
	brewerr "github.com/mrz1836/brewbar/pkg/errors"
)

// Notice titles.
const (
	TitleConnected        = "Wallet Connected!"
	TitleProviderNotFound = "Provider Not Found"
	TitleConnectFailed    = "Connection Failed"
	TitleDisconnected     = "Wallet Disconnected"
	TitleBalance          = "Balance"
	TitleError            = "Error"
	TitleNotConnected     = "Wallet Not Connected"
	TitleItemNotFound     = "Item Not Found"
	TitlePurchased        = "Purchase Successful!"
	TitleTxFailed         = "Transaction Failed"
	TitleNoContracts      = "No Storage Contracts"
	TitleInvalidIndex     = "Invalid Index"
	TitleValueRetrieved   = "Value Retrieved"
	TitleReadFailed       = "Read Failed"
	TitleValueSet         = "Value Set!"
	TitleSetFailed        = "Set Value Failed"
	TitleStorageCreated   = "Storage Created!"
	TitleCreateFailed     = "Creation Failed"
	TitleContractInfo     = "Contract Info"
	TitleContractState    = "Contract State"
	TitleDebugFailed      = "Debug Failed"
	TitleBusy             = "Busy"
)

// Controller runs storefront actions against one session.
// It refuses a second action while one is running.
type Controller struct {
	gw      Gateway
	reg     Registry
	sess    *session.Session
	menu    *catalog.Catalog
	cafe    string
	chainID int64
	metrics *metrics.Metrics
	logger  Logger
	busy    atomic.Bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithChainID pins the chain used in payment requests instead of asking the wallet.
func WithChainID(id int64) Option {
	return func(c *Controller) {
		c.chainID = id
	}
}

// WithMetrics records purchases into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithLogger sets the controller logger.
func WithLogger(l Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a controller. Purchases are paid to cafeAddress.
func New(gw Gateway, reg Registry, sess *session.Session, menu *catalog.Catalog, cafeAddress string, opts ...Option) *Controller {
	c := &Controller{
		gw:     gw,
		reg:    reg,
		sess:   sess,
		menu:   menu,
		cafe:   cafeAddress,
		logger: config.NullLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the controller acts on.
func (c *Controller) Session() *session.Session {
	return c.sess
}

// Menu returns the catalog items.
func (c *Controller) Menu() []catalog.Coffee {
	return c.menu.Items()
}

// run guards an action with the busy flag.
func (c *Controller) run(name string, action func() output.Notice) output.Notice {
	if !c.busy.CompareAndSwap(false, true) {
		return output.FailureFrom(TitleBusy,
			brewerr.WithMessage(brewerr.ErrBusy, "Another action is still in progress. Please wait."))
	}
	defer c.busy.Store(false)

	n := action()
	if n.Success {
		c.logger.Debug("storefront: %s: %s", name, n.Title)
	} else {
		c.logger.Error("storefront: %s failed: %s: %s", name, n.Title, n.Message)
	}
	return n
}

// Connect requests wallet access.
func (c *Controller) Connect(ctx context.Context) output.Notice {
	return c.run("connect", func() output.Notice {
		address, err := c.sess.Connect(ctx, c.gw)
		if err != nil {
			if provider.KindOf(err) == provider.KindUnavailable {
				return output.FailureFrom(TitleProviderNotFound, brewerr.WithMessage(err,
					"No wallet provider is reachable. Start your wallet or set provider.url to its JSON-RPC endpoint."))
			}
			return output.FailureFrom(TitleConnectFailed, err)
		}
		return output.Successf(TitleConnected, "Your wallet and smart contract have been successfully connected.\nAccount: %s",
			chain.FormatAddress(address)).WithData(c.sess.State())
	})
}

// Disconnect forgets the connected account.
func (c *Controller) Disconnect() output.Notice {
	return c.run("disconnect", func() output.Notice {
		c.sess.Disconnect()
		return output.Successf(TitleDisconnected, "Your wallet has been disconnected.").WithData(c.sess.State())
	})
}

// ShowBalance fetches the balance of the connected account.
func (c *Controller) ShowBalance(ctx context.Context) output.Notice {
	return c.run("balance", func() output.Notice {
		balance, err := c.sess.RefreshBalance(ctx, c.gw)
		if err != nil {
			if brewerr.Is(err, brewerr.ErrNotConnected) {
				return output.FailureFrom(TitleError, brewerr.WithMessage(err, "Wallet not connected"))
			}
			return output.FailureFrom(TitleError, err)
		}
		return output.Successf(TitleBalance, "%s ETH", balance).WithData(c.sess.State())
	})
}

// Buy pays the cafe the price of the item named by query.
func (c *Controller) Buy(ctx context.Context, query string) output.Notice {
	return c.run("buy", func() output.Notice {
		from, ok := c.sess.Address()
		if !ok {
			return output.FailureFrom(TitleNotConnected,
				brewerr.WithMessage(brewerr.ErrNotConnected, "Please connect your wallet before making a purchase."))
		}

		item, err := c.menu.Lookup(query)
		if err != nil {
			return output.FailureFrom(TitleItemNotFound, err)
		}

		wei, err := item.PriceWei()
		if err != nil {
			return output.FailureFrom(TitleTxFailed, err)
		}

		c.logger.Debug("storefront: purchasing %s for %s ETH", item.Name, item.Price)
		txHash, err := c.gw.SendValue(ctx, from, c.cafe, chain.WeiToHex(wei))
		if c.metrics != nil {
			c.metrics.RecordPurchase(err)
		}
		if err != nil {
			return output.FailureFrom(TitleTxFailed, err)
		}

		receipt := catalog.NewReceipt(item, wei, txHash, from, c.cafe)
		return output.Successf(TitlePurchased, "Your %s has been purchased! Enjoy your coffee ☕\n\nTransaction: %s",
			item.Name, chain.FormatHash(txHash)).WithData(receipt)
	})
}

// PaymentRequest returns the item and an EIP-681 URI paying its price to the cafe.
func (c *Controller) PaymentRequest(ctx context.Context, query string) (catalog.Coffee, string, error) {
	item, err := c.menu.Lookup(query)
	if err != nil {
		return catalog.Coffee{}, "", err
	}

	chainID := c.chainID
	if chainID == 0 {
		id, idErr := c.gw.ChainID(ctx)
		if idErr != nil {
			c.logger.Debug("storefront: chain id unavailable, omitting it from the payment URI: %v", idErr)
		} else if id.IsInt64() {
			chainID = id.Int64()
		}
	}

	uri, err := item.PaymentURI(c.cafe, chainID)
	if err != nil {
		return catalog.Coffee{}, "", err
	}
	return item, uri, nil
}

// ValueResult is the data attached to value notices.
type ValueResult struct {
	Index  int    `json:"index"`
	Value  string `json:"value,omitempty"`
	TxHash string `json:"tx_hash,omitempty"`
	Count  int    `json:"count"`
}

// GetValue reads the value stored at the index in indexText.
func (c *Controller) GetValue(ctx context.Context, indexText string) output.Notice {
	return c.run("get", func() output.Notice {
		return c.getValue(ctx, parseIndex(indexText))
	})
}

func (c *Controller) getValue(ctx context.Context, index int) output.Notice {
	res, err := c.reg.Count(ctx)
	if err != nil {
		return output.FailureFrom(TitleReadFailed, err)
	}
	if res.Count == 0 {
		return output.FailureFrom(TitleNoContracts, brewerr.WithMessage(brewerr.ErrIndexOutOfRange,
			"No storage contracts found. Please create one first."+incompleteNote(res)))
	}
	if index < 0 || index >= res.Count {
		return output.FailureFrom(TitleInvalidIndex, brewerr.WithMessage(brewerr.ErrIndexOutOfRange,
			fmt.Sprintf("Index %d doesn't exist. Only %d storage contract(s) available. Valid indexes: 0-%d",
				index, res.Count, res.Count-1)+incompleteNote(res)))
	}

	value, err := c.reg.Get(ctx, index)
	if err != nil {
		return output.FailureFrom(TitleReadFailed, err)
	}
	return output.Successf(TitleValueRetrieved, "Stored value at index %d: %s", index, value).
		WithData(ValueResult{Index: index, Value: value.String(), Count: res.Count})
}

// SetValue writes valueText at the index in indexText, then reads it back.
func (c *Controller) SetValue(ctx context.Context, indexText, valueText string) output.Notice {
	return c.run("set", func() output.Notice {
		from, ok := c.sess.Address()
		if !ok {
			return output.FailureFrom(TitleNotConnected,
				brewerr.WithMessage(brewerr.ErrNotConnected, "Please connect your wallet first."))
		}

		index := parseIndex(indexText)
		value, ok := parseValue(valueText)
		if !ok {
			return output.FailureFrom(TitleSetFailed,
				brewerr.WithMessage(brewerr.ErrInvalidInput, "Please enter a valid number"))
		}

		res, err := c.reg.Count(ctx)
		if err != nil {
			return output.FailureFrom(TitleSetFailed, err)
		}
		if index >= res.Count {
			return output.FailureFrom(TitleSetFailed, brewerr.WithMessage(brewerr.ErrIndexOutOfRange,
				fmt.Sprintf("Index %d doesn't exist. Create storage contract first or use index 0-%d",
					index, res.Count-1)+incompleteNote(res)))
		}

		txHash, err := c.reg.Set(ctx, from, index, value)
		if err != nil {
			return output.FailureFrom(TitleSetFailed, err)
		}

		n := output.Successf(TitleValueSet, "Successfully set value %s at index %d\nTransaction: %s",
			value, index, chain.FormatHash(txHash))
		result := ValueResult{Index: index, TxHash: txHash, Count: res.Count}

		if refreshed := c.getValue(ctx, index); refreshed.Success {
			n.Message += "\n" + refreshed.Message
			if v, isValue := refreshed.Data.(ValueResult); isValue {
				result.Value = v.Value
			}
		} else {
			n.Message += fmt.Sprintf("\n%s: %s", refreshed.Title, refreshed.Message)
		}
		return n.WithData(result)
	})
}

// CreateResult is the data attached to the creation notice.
type CreateResult struct {
	Index     int    `json:"index"`
	TxHash    string `json:"tx_hash"`
	Available string `json:"available_indexes"`
}

// CreateStorage deploys a new storage contract through the factory.
func (c *Controller) CreateStorage(ctx context.Context) output.Notice {
	return c.run("create", func() output.Notice {
		from, ok := c.sess.Address()
		if !ok {
			return output.FailureFrom(TitleNotConnected,
				brewerr.WithMessage(brewerr.ErrNotConnected, "Please connect your wallet first."))
		}

		res, err := c.reg.Create(ctx, from)
		if err != nil {
			return output.FailureFrom(TitleCreateFailed, err)
		}
		return output.Successf(TitleStorageCreated, "%s", res.Message()).WithData(CreateResult{
			Index:     res.Index,
			TxHash:    res.TxHash,
			Available: availableIndexes(res.Index + 1),
		})
	})
}

// InfoResult is the data attached to the contract info notice.
type InfoResult struct {
	Count     int    `json:"count"`
	Available string `json:"available_indexes"`
	Stop      string `json:"stop"`
}

// ContractInfo reports how many storage contracts exist and the valid index range.
func (c *Controller) ContractInfo(ctx context.Context) output.Notice {
	return c.run("info", func() output.Notice {
		res, err := c.reg.Count(ctx)
		if err != nil {
			return output.FailureFrom(TitleContractInfo, err)
		}
		available := availableIndexes(res.Count)
		msg := fmt.Sprintf("Storage contracts: %d\nAvailable Indexes: %s", res.Count, available) + incompleteNote(res)
		return output.Successf(TitleContractInfo, "%s", msg).
			WithData(InfoResult{Count: res.Count, Available: available, Stop: res.Stop.String()})
	})
}

// Debug reads every existing storage contract.
func (c *Controller) Debug(ctx context.Context) output.Notice {
	return c.run("debug", func() output.Notice {
		state, err := c.reg.Debug(ctx)
		if err != nil {
			return output.FailureFrom(TitleDebugFailed, err)
		}
		return output.Successf(TitleContractState, "Found %d existing storage contracts%s",
			state.TotalContracts, incompleteNote(state.Scan)).WithData(state)
	})
}

// incompleteNote flags a count that stopped before the end of the list.
func incompleteNote(res scan.Result) string {
	if res.Complete() {
		return ""
	}
	return fmt.Sprintf("\nCount may be incomplete (%s).", res.Stop)
}

func availableIndexes(count int) string {
	if count <= 0 {
		return "none"
	}
	return fmt.Sprintf("0-%d", count-1)
}
