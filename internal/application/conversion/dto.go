package conversion

// ConversionResult 通貨換算結果
type ConversionResult struct {
	SourceCurrency      string  `json:"source_currency"`
	TargetCurrency      string  `json:"target_currency"`
	SourceMilliunits    int64   `json:"source_milliunits"`
	SourceUnits         string  `json:"source_units"`
	ConvertedUnits      float64 `json:"converted_units"`
	ConvertedMilliunits int64   `json:"converted_milliunits"`
	Rate                string  `json:"rate"`
}
