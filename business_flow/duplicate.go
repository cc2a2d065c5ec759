package businessflow

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mercat-labs/loyalty-platform/models"
)

// Duplicate detection compares a freshly extracted ticket against the user's
// prior terminal tickets: two tickets are duplicates when their dates fall
// within a five minute window and their product bags are equal as multisets.

const duplicateWindow = 5 * time.Minute

// ticketDateLayouts are the accepted extraction date formats
var ticketDateLayouts = []string{
	"02/01/2006 15:04",
	"02/01/2006",
}

// ParseTicketDate parses an extracted fecha, optionally combined with hora
func ParseTicketDate(fecha string, hora *string) (time.Time, error) {
	candidate := strings.TrimSpace(fecha)
	if hora != nil && strings.TrimSpace(*hora) != "" && !strings.Contains(candidate, " ") {
		candidate = candidate + " " + strings.TrimSpace(*hora)
	}

	for _, layout := range ticketDateLayouts {
		if parsed, err := time.Parse(layout, candidate); err == nil {
			return parsed.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized ticket date %q", candidate)
}

// ProductBagHash reduces a product list to a digest of its sorted
// (name, quantity, price) triples. Equal multisets hash equally.
func ProductBagHash(products models.ProductList) string {
	triples := make([]string, 0, len(products))
	for _, line := range products {
		triples = append(triples, strings.Join([]string{
			strings.TrimSpace(line.Name),
			strings.TrimSpace(line.Quantity),
			strings.TrimSpace(line.Price),
		}, "|"))
	}
	sort.Strings(triples)

	digest := sha256.Sum256([]byte(strings.Join(triples, "\n")))
	return hex.EncodeToString(digest[:])
}

// PriorTicket is the comparable projection of an already processed ticket
type PriorTicket struct {
	Date     time.Time
	BagHash  string
	TicketID string
}

// PriorTicketFromResult extracts the comparable projection from a stored
// processing result. Returns false when the result lacks the needed fields.
func PriorTicketFromResult(ticketID string, result models.JSONMap) (PriorTicket, bool) {
	if result == nil {
		return PriorTicket{}, false
	}

	fecha, _ := result["fecha"].(string)
	if strings.TrimSpace(fecha) == "" {
		return PriorTicket{}, false
	}

	var hora *string
	if h, ok := result["hora"].(string); ok && h != "" {
		hora = &h
	}

	date, err := ParseTicketDate(fecha, hora)
	if err != nil {
		return PriorTicket{}, false
	}

	rawProducts, ok := result["productos"].([]any)
	if !ok {
		return PriorTicket{}, false
	}
	products := make(models.ProductList, 0, len(rawProducts))
	for _, raw := range rawProducts {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		products = append(products, models.ProductLine{
			Name:     stringValue(entry["nombre"]),
			Quantity: stringValue(entry["cantidad"]),
			Price:    stringValue(entry["precio"]),
		})
	}

	return PriorTicket{
		Date:     date,
		BagHash:  ProductBagHash(products),
		TicketID: ticketID,
	}, true
}

func stringValue(value any) string {
	if value == nil {
		return ""
	}
	if s, ok := value.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", value)
}

// FirstDuplicate returns the first prior ticket the candidate duplicates,
// or nil. A candidate whose date cannot be parsed never matches.
func FirstDuplicate(candidateFecha string, candidateHora *string, candidateProducts models.ProductList, priors []PriorTicket) *PriorTicket {
	candidateDate, err := ParseTicketDate(candidateFecha, candidateHora)
	if err != nil {
		return nil
	}
	candidateHash := ProductBagHash(candidateProducts)

	for i := range priors {
		delta := candidateDate.Sub(priors[i].Date)
		if delta < 0 {
			delta = -delta
		}
		if delta <= duplicateWindow && priors[i].BagHash == candidateHash {
			return &priors[i]
		}
	}

	return nil
}

// IsDuplicate reports whether a candidate ticket duplicates any prior ticket
func IsDuplicate(candidateFecha string, candidateHora *string, candidateProducts models.ProductList, priors []PriorTicket) bool {
	return FirstDuplicate(candidateFecha, candidateHora, candidateProducts, priors) != nil
}
