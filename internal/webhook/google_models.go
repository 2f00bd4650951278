package webhook

// GoogleLeadPayload is the body Google Ads posts for each lead form submission.
// See https://developers.google.com/google-ads/webhook/docs/implementation.
type GoogleLeadPayload struct {
	GoogleKey      string             `json:"google_key"`
	LeadID         string             `json:"lead_id"`
	CampaignID     int64              `json:"campaign_id"`
	FormID         int64              `json:"form_id"`
	GCLID          string             `json:"gclid"`
	UserColumnData []GoogleColumnData `json:"user_column_data"`
	IsTest         bool               `json:"is_test"`
	APIVersion     string             `json:"api_version"`
	CampaignName   string             `json:"campaign_name"`
	FormName       string             `json:"form_name"`
}

// GoogleColumnData is one answered form field. ColumnID is set for standard
// questions; custom questions only carry ColumnName.
type GoogleColumnData struct {
	ColumnID    string `json:"column_id"`
	StringValue string `json:"string_value"`
	ColumnName  string `json:"column_name"`
}
