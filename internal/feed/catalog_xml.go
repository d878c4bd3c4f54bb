package feed

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/listing-radar/app/models"
)

type catalogItem struct {
	DealType string `xml:"deal_type"`
	Status   string `xml:"status"`
	Address  string `xml:"address"`
	Square   string `xml:"square"`
	Price    string `xml:"price"`
	CRMURL   string `xml:"crm_url"`
}

// ReadCatalogXML loads the internal catalog export (deals.xml). Items without
// an address are dropped; square and price fields arrive as free text and are
// reduced to their first number.
func ReadCatalogXML(path string, logger *zap.Logger) ([]*models.ListingRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	items, err := decodeCatalog(f)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog loaded", zap.String("path", path), zap.Int("items", len(items)))
	return items, nil
}

// decodeCatalog streams <item> elements wherever they sit in the tree. The
// export is not always well-shaped, so the decoder tolerates charset quirks
// and skips past anything that is not an item.
func decodeCatalog(r io.Reader) ([]*models.ListingRecord, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var out []*models.ListingRecord
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse catalog xml: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "item" {
			continue
		}

		var it catalogItem
		if err := dec.DecodeElement(&it, &start); err != nil {
			return nil, fmt.Errorf("parse catalog item: %w", err)
		}

		address := strings.TrimSpace(it.Address)
		if address == "" {
			continue
		}
		out = append(out, &models.ListingRecord{
			Source:   "catalog",
			DealType: models.ParseDealType(it.DealType),
			Status:   strings.TrimSpace(it.Status),
			Address:  address,
			AreaM2:   ExtractFirstNumber(it.Square),
			PriceRub: ExtractFirstNumber(it.Price),
			URL:      strings.TrimSpace(it.CRMURL),
		})
	}
	return out, nil
}
