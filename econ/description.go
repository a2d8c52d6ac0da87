package econ

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Bool tolerates the three encodings Steam endpoints use for flags:
// true/false, 1/0 and "1"/"0".
type Bool bool

func (b *Bool) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	switch string(data) {
	case "true", "1":
		*b = true
		return nil
	case "false", "0", "null", "":
		*b = false
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*b = n != 0
	return nil
}

func (b Bool) MarshalJSON() ([]byte, error) {
	return json.Marshal(bool(b))
}

type DescriptionLine struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
}

type Action struct {
	Name string `json:"name"`
	Link string `json:"link"`
}

type Tag struct {
	Category              string `json:"category"`
	InternalName          string `json:"internal_name"`
	LocalizedCategoryName string `json:"localized_category_name"`
	LocalizedTagName      string `json:"localized_tag_name"`
	Color                 string `json:"color,omitempty"`
}

// Description is the metadata shared by every item of a given
// (classid, instanceid) pair: display names, icons, market data and
// tradability. Assets reference it by key, they never carry it inline.
type Description struct {
	AppID      int    `json:"appid"`
	ClassID    string `json:"classid"`
	InstanceID string `json:"instanceid"`

	Name           string `json:"name"`
	MarketName     string `json:"market_name"`
	MarketHashName string `json:"market_hash_name"`
	Type           string `json:"type"`

	IconURL         string `json:"icon_url"`
	IconURLLarge    string `json:"icon_url_large,omitempty"`
	NameColor       string `json:"name_color,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`

	Tradable   Bool `json:"tradable"`
	Marketable Bool `json:"marketable"`
	Commodity  Bool `json:"commodity"`
	Currency   Bool `json:"currency"`

	MarketTradableRestriction   int `json:"market_tradable_restriction,omitempty"`
	MarketMarketableRestriction int `json:"market_marketable_restriction,omitempty"`

	Descriptions []DescriptionLine `json:"descriptions,omitempty"`
	Actions      []Action          `json:"actions,omitempty"`
	Tags         []Tag             `json:"tags,omitempty"`
}

// Key returns the composite lookup key assets use to reference their
// description. An absent instance id counts as "0".
func (d *Description) Key() string {
	return DescriptionKey(d.ClassID, d.InstanceID)
}

func DescriptionKey(classID, instanceID string) string {
	if instanceID == "" {
		instanceID = "0"
	}
	return classID + "_" + instanceID
}

// Item is one inventory entry: the asset identity plus its merged-in
// description. Position is 1-based and mirrors in-game slot order.
type Item struct {
	AssetID    string
	ContextID  string
	Amount     int64
	Position   int
	IsCurrency bool

	Description
}

// NewItem merges an asset's identity with its resolved description.
func NewItem(assetID, contextID string, amount int64, pos int, isCurrency bool, desc *Description) Item {
	item := Item{
		AssetID:    assetID,
		ContextID:  contextID,
		Amount:     amount,
		Position:   pos,
		IsCurrency: isCurrency,
	}
	if desc != nil {
		item.Description = *desc
	}
	if item.Description.InstanceID == "" {
		item.Description.InstanceID = "0"
	}
	if item.Amount == 0 {
		item.Amount = 1
	}
	return item
}

// ParseAmount decodes the stringly-typed amount Steam puts on assets.
func ParseAmount(s string) int64 {
	if s == "" {
		return 1
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 1
	}
	return n
}
