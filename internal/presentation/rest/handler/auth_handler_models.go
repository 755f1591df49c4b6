package handler

// IssueTokenRequest 委任トークン発行リクエスト
type IssueTokenRequest struct {
	Login       string `json:"login"`
	DisplayName string `json:"name"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
}

// IssueTokenResponse 委任トークン発行レスポンス
type IssueTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
	TokenType string `json:"token_type"`
}
