// Package catalog holds the static coffee menu.
package catalog

import (
	_ "embed"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mrz1836/brewbar/internal/chain"
	brewerr "github.com/mrz1836/brewbar/pkg/errors"
)

//go:embed menu.yaml
var menuYAML []byte

// maxSuggestDistance is the largest edit distance offered as a suggestion.
const maxSuggestDistance = 3

// Coffee is one menu item.
type Coffee struct {
	ID          string `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Price       string `yaml:"price" json:"price"` // ETH
	Emoji       string `yaml:"emoji" json:"emoji"`
	Image       string `yaml:"image" json:"image"`
}

// PriceWei returns the price in wei. The decimal string is converted exactly.
func (c Coffee) PriceWei() (*big.Int, error) {
	return chain.ParseETH(c.Price, brewerr.WithDetails(brewerr.ErrInvalidAmount, map[string]string{
		"item":  c.ID,
		"price": c.Price,
	}))
}

// PaymentURI returns an EIP-681 payment request for this item paid to to.
func (c Coffee) PaymentURI(to string, chainID int64) (string, error) {
	wei, err := c.PriceWei()
	if err != nil {
		return "", err
	}
	if chainID > 0 {
		return fmt.Sprintf("ethereum:%s@%d?value=%s", to, chainID, wei.String()), nil
	}
	return fmt.Sprintf("ethereum:%s?value=%s", to, wei.String()), nil
}

// Catalog is an immutable list of menu items.
type Catalog struct {
	items []Coffee
}

type menuFile struct {
	Items []Coffee `yaml:"items"`
}

// Default returns the embedded menu.
func Default() *Catalog {
	c, err := Parse(menuYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded menu is invalid: %v", err))
	}
	return c
}

// Parse decodes a menu document and validates every price.
func Parse(data []byte) (*Catalog, error) {
	var f menuFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, brewerr.WithCause(brewerr.WithMessage(brewerr.ErrInvalidInput, "invalid menu document"), err)
	}

	seen := make(map[string]bool, len(f.Items))
	for _, item := range f.Items {
		if item.ID == "" || item.Name == "" {
			return nil, brewerr.WithMessage(brewerr.ErrInvalidInput, "menu item is missing an id or name")
		}
		if seen[item.ID] {
			return nil, brewerr.WithDetails(
				brewerr.WithMessage(brewerr.ErrInvalidInput, "duplicate menu item id"),
				map[string]string{"id": item.ID})
		}
		seen[item.ID] = true
		if _, err := item.PriceWei(); err != nil {
			return nil, err
		}
	}
	return &Catalog{items: f.Items}, nil
}

// Items returns the menu in display order.
func (c *Catalog) Items() []Coffee {
	return append([]Coffee(nil), c.items...)
}

// Lookup finds an item by id or case-insensitive name.
// A miss suggests the closest name when one is near enough.
func (c *Catalog) Lookup(query string) (Coffee, error) {
	q := strings.TrimSpace(query)
	for _, item := range c.items {
		if item.ID == q || strings.EqualFold(item.Name, q) {
			return item, nil
		}
	}

	err := brewerr.WithDetails(brewerr.ErrItemNotFound, map[string]string{"item": q})
	if best, ok := c.suggest(q); ok {
		err = brewerr.WithSuggestion(err, fmt.Sprintf("did you mean %q?", best))
	}
	return Coffee{}, err
}

func (c *Catalog) suggest(query string) (string, bool) {
	q := strings.ToLower(query)
	best, bestDist := "", maxSuggestDistance+1
	for _, item := range c.items {
		d := levenshtein.ComputeDistance(q, strings.ToLower(item.Name))
		if d < bestDist {
			best, bestDist = item.Name, d
		}
	}
	return best, best != ""
}

// Receipt records a submitted purchase.
type Receipt struct {
	OrderID  string    `json:"order_id"`
	Item     string    `json:"item"`
	PriceETH string    `json:"price_eth"`
	PriceWei string    `json:"price_wei"`
	TxHash   string    `json:"tx_hash"`
	From     string    `json:"from"`
	To       string    `json:"to"`
	Time     time.Time `json:"time"`
}

// NewReceipt builds the receipt for a purchase of item.
func NewReceipt(item Coffee, wei *big.Int, txHash, from, to string) Receipt {
	return Receipt{
		OrderID:  uuid.NewString(),
		Item:     item.Name,
		PriceETH: item.Price,
		PriceWei: wei.String(),
		TxHash:   txHash,
		From:     from,
		To:       to,
		Time:     time.Now().UTC(),
	}
}
