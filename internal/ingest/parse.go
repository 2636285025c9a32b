package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	"github.com/shopspring/decimal"
)

const (
	KindInventory = "inventory"
	KindOrders    = "orders"
)

var (
	inventoryColumns = []string{"productId", "name", "quantity", "category", "subCategory"}
	orderColumns     = []string{"orderId", "productId", "currency", "quantity", "shippingCost", "amount", "channel", "channelGroup", "campaign", "dateTime"}

	// order feeds mix timestamps with and without seconds
	dateTimeLayouts = []string{
		"2006-01-02T15:04:05Z07:00",
		"2006-01-02T15:04Z07:00",
	}

	utf8BOM = []byte{0xEF, 0xBB, 0xBF}

	// NUMERIC(12,2) holds magnitudes below 10^10
	moneyLimit = decimal.New(1, 10)
)

// moneyScale is the number of decimal places stored for money columns.
const moneyScale = 2

// ParseDateTime accepts either supported timestamp layout and returns the instant in UTC.
func ParseDateTime(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("dateTime %q matches no supported format", raw)
}

// header maps column names to their record index.
type header struct {
	index map[string]int
	width int
}

func newReader(src io.Reader, delimiter rune) (*csv.Reader, error) {
	buffered := bufio.NewReader(src)
	if prefix, err := buffered.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		if _, err := buffered.Discard(len(utf8BOM)); err != nil {
			return nil, err
		}
	}

	reader := csv.NewReader(buffered)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false
	return reader, nil
}

func readHeader(reader *csv.Reader, required []string) (header, error) {
	names, err := reader.Read()
	if err == io.EOF {
		return header{}, fmt.Errorf("missing header row")
	}
	if err != nil {
		return header{}, fmt.Errorf("read header: %w", err)
	}

	h := header{index: make(map[string]int, len(names)), width: len(names)}
	for i, name := range names {
		h.index[strings.TrimSpace(name)] = i
	}

	missing := []string{}
	for _, col := range required {
		if _, ok := h.index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return header{}, fmt.Errorf("header missing columns: %s", strings.Join(missing, ", "))
	}
	return h, nil
}

func (h header) get(record []string, column string) string {
	return strings.TrimSpace(record[h.index[column]])
}

// rowNote flags a value the loader changed to fit its column.
type rowNote struct {
	Column string
	Raw    string
	Stored string
}

func parseInventoryRow(h header, record []string) (any, []rowNote, error) {
	productID := h.get(record, "productId")
	if productID == "" {
		return nil, nil, fmt.Errorf("productId is empty")
	}
	name := h.get(record, "name")
	if name == "" {
		return nil, nil, fmt.Errorf("name is empty")
	}
	quantity, err := parseQuantity(h.get(record, "quantity"))
	if err != nil {
		return nil, nil, err
	}
	if quantity < 0 {
		return nil, nil, fmt.Errorf("quantity %d is negative", quantity)
	}

	return &models.InventoryItem{
		ProductID:   productID,
		ProductName: name,
		Quantity:    quantity,
		Category:    h.get(record, "category"),
		SubCategory: h.get(record, "subCategory"),
	}, nil, nil
}

func parseOrderRow(h header, record []string) (any, []rowNote, error) {
	orderID := h.get(record, "orderId")
	if orderID == "" {
		return nil, nil, fmt.Errorf("orderId is empty")
	}
	productID := h.get(record, "productId")
	if productID == "" {
		return nil, nil, fmt.Errorf("productId is empty")
	}
	quantity, err := parseQuantity(h.get(record, "quantity"))
	if err != nil {
		return nil, nil, err
	}

	var notes []rowNote
	shipping, note, err := parseMoney("shippingCost", h.get(record, "shippingCost"))
	if err != nil {
		return nil, nil, err
	}
	if note != nil {
		notes = append(notes, *note)
	}
	amount, note, err := parseMoney("amount", h.get(record, "amount"))
	if err != nil {
		return nil, nil, err
	}
	if note != nil {
		notes = append(notes, *note)
	}
	placedAt, err := ParseDateTime(h.get(record, "dateTime"))
	if err != nil {
		return nil, nil, err
	}

	return &models.Order{
		OrderID:      orderID,
		ProductID:    productID,
		Currency:     h.get(record, "currency"),
		Quantity:     quantity,
		ShippingCost: shipping,
		Amount:       amount,
		Channel:      h.get(record, "channel"),
		ChannelGroup: h.get(record, "channelGroup"),
		Campaign:     h.get(record, "campaign"),
		DateTime:     placedAt,
	}, notes, nil
}

// parseQuantity parses an integer that fits the INTEGER columns on every dialect.
func parseQuantity(raw string) (int, error) {
	value, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, fmt.Errorf("quantity %s is out of range", raw)
		}
		return 0, fmt.Errorf("quantity: %w", err)
	}
	return int(value), nil
}

// parseMoney rounds to moneyScale places and rejects magnitudes the column cannot hold.
// A note is returned when rounding changed the value.
func parseMoney(column, raw string) (decimal.Decimal, *rowNote, error) {
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("%s: %w", column, err)
	}
	rounded := value.Round(moneyScale)
	if rounded.Abs().GreaterThanOrEqual(moneyLimit) {
		return decimal.Zero, nil, fmt.Errorf("%s %s is out of range", column, raw)
	}
	if !rounded.Equal(value) {
		return rounded, &rowNote{Column: column, Raw: raw, Stored: rounded.StringFixed(moneyScale)}, nil
	}
	return rounded, nil, nil
}
