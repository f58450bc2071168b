// Package pollers retrieves recent order history straight from exchange
// REST APIs and hands it to the same mapping pipeline the CSV parsers use.
package pollers

import (
	"context"
	"encoding/json"

	"github.com/username/coinfolio/backend/src/mapper"
	"github.com/username/coinfolio/backend/src/models"
	"github.com/username/coinfolio/backend/src/progress"
)

// Poller retrieves the authenticated account's orders from one exchange.
type Poller interface {
	GetOrders(ctx context.Context, progressFn progress.Func) ([]*models.Order, error)
}

// docFromJSON flattens one decoded API object into a key-indexed record.
// Numbers must have been decoded as json.Number so their exact decimal
// text reaches the mapper.
func docFromJSON(obj map[string]any) mapper.Doc {
	doc := make(mapper.Doc, len(obj))
	for key, value := range obj {
		switch v := value.(type) {
		case string:
			doc[key] = v
		case json.Number:
			doc[key] = v.String()
		case bool:
			if v {
				doc[key] = "true"
			} else {
				doc[key] = "false"
			}
		case nil:
			// absent
		}
	}
	return doc
}
