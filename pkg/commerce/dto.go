package commerce

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// The backend wraps every payload in a "data" envelope.
type envelope[T any] struct {
	Data T `json:"data"`
}

// envelopeWithMeta also captures the collection-level meta block
// (cart totals live there, not on the items).
type envelopeWithMeta[T any] struct {
	Data T              `json:"data"`
	Meta map[string]any `json:"meta"`
}

type productData struct {
	ID         string `json:"id"`
	Attributes struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	} `json:"attributes"`
	Meta map[string]any `json:"meta"`
}

type cartItemData struct {
	ID        string         `json:"id"`
	ProductID string         `json:"product_id"`
	Name      string         `json:"name"`
	Quantity  int            `json:"quantity"`
	Meta      map[string]any `json:"meta"`
}

type orderData struct {
	ID   string         `json:"id"`
	Meta map[string]any `json:"meta"`
}

type relationshipData struct {
	ID string `json:"id"`
}

type fileData struct {
	Link struct {
		Href string `json:"href"`
	} `json:"link"`
}

type inventoryData struct {
	Available int `json:"available"`
}

// priceBlock is one formatted amount inside a display_price map.
type priceBlock struct {
	Amount    int64  `mapstructure:"amount"`
	Formatted string `mapstructure:"formatted"`
	Currency  string `mapstructure:"currency"`
}

// displayPrice mirrors the backend's meta.display_price block. Which
// of the tax variants is populated differs between catalog and cart
// endpoints, so both are declared and callers pick the non-zero one.
type displayPrice struct {
	WithTax    priceBlock `mapstructure:"with_tax"`
	WithoutTax priceBlock `mapstructure:"without_tax"`
}

// itemPrice mirrors the per-item display_price block of cart items,
// which nests unit and line values under the tax variant.
type itemPrice struct {
	WithTax struct {
		Unit  priceBlock `mapstructure:"unit"`
		Value priceBlock `mapstructure:"value"`
	} `mapstructure:"with_tax"`
}

// metaBlock is the decoded shape of a resource's meta map.
type metaBlock struct {
	DisplayPrice displayPrice `mapstructure:"display_price"`
}

type itemMetaBlock struct {
	DisplayPrice itemPrice `mapstructure:"display_price"`
}

// decodeMeta decodes a loosely-typed meta map into out. The backend's
// meta shape drifts between API generations, so it is declared as a
// map in the DTOs and decoded here with weak typing.
func decodeMeta(meta map[string]any, out any) error {
	if meta == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build meta decoder: %w", err)
	}
	if err := dec.Decode(meta); err != nil {
		return fmt.Errorf("failed to decode meta block: %w", err)
	}
	return nil
}

// price picks the populated tax variant of a display_price block.
func (d displayPrice) price() priceBlock {
	if d.WithTax.Amount != 0 || d.WithTax.Formatted != "" {
		return d.WithTax
	}
	return d.WithoutTax
}
