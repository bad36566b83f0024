package invoice

// TaxPresetNone is the preset id meaning no tax applies.
const TaxPresetNone = "none"

// TaxPreset is a named tax rate the editor can apply in one click.
type TaxPreset struct {
	ID    string  `json:"id"`
	Label string  `json:"label"`
	Rate  float64 `json:"rate"`
}

// TaxPresets lists the built-in presets in display order.
var TaxPresets = []TaxPreset{
	{ID: TaxPresetNone, Label: "No tax", Rate: 0},
	{ID: "ca_gst_5", Label: "GST (Canada)", Rate: 5},
	{ID: "ca_hst_13", Label: "HST (Ontario)", Rate: 13},
	{ID: "ca_hst_15", Label: "HST (Atlantic)", Rate: 15},
	{ID: "vat_standard_20", Label: "VAT (Standard)", Rate: 20},
	{ID: "vat_reduced_5", Label: "VAT (Reduced)", Rate: 5},
	{ID: "sales_tax_8", Label: "Sales Tax", Rate: 8},
}

// TaxPresetByID looks up a preset; nil when the id is unknown.
func TaxPresetByID(id string) *TaxPreset {
	for i := range TaxPresets {
		if TaxPresets[i].ID == id {
			return &TaxPresets[i]
		}
	}
	return nil
}
