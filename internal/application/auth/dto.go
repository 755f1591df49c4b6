package auth

import "github.com/golang-jwt/jwt/v5"

// IssueTokenRequest 委任トークン発行リクエスト
type IssueTokenRequest struct {
	Login       string
	DisplayName string
	Email       string
	AccessToken string // 上流台帳APIへのアクセストークン
}

// IssueTokenResponse 委任トークン発行レスポンス
type IssueTokenResponse struct {
	Token     string
	ExpiresIn int64  // 秒単位
	TokenType string // "Bearer"
}

// delegatedClaims 委任トークンのクレーム
type delegatedClaims struct {
	Login       string `json:"login,omitempty"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	AccessToken string `json:"access_token,omitempty"`
	jwt.RegisteredClaims
}
