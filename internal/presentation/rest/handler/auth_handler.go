package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	authapp "ynab-mcp-server/internal/application/auth"
)

// AuthHandler 運用者向けの委任トークン発行ハンドラー
type AuthHandler struct {
	authService *authapp.AuthApplicationService
}

// NewAuthHandler 新しいAuthHandlerを作成
func NewAuthHandler(authService *authapp.AuthApplicationService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// IssueToken 委任トークンを発行する
// マシン資格情報で保護されたルートにのみ登録する
func (h *AuthHandler) IssueToken(c echo.Context) error {
	var reqBody IssueTokenRequest
	if err := c.Bind(&reqBody); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(reqBody.Login) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "login is required")
	}

	resp, err := h.authService.IssueDelegatedToken(c.Request().Context(), &authapp.IssueTokenRequest{
		Login:       strings.TrimSpace(reqBody.Login),
		DisplayName: reqBody.DisplayName,
		Email:       reqBody.Email,
		AccessToken: reqBody.AccessToken,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, IssueTokenResponse{
		Token:     resp.Token,
		ExpiresIn: int(resp.ExpiresIn),
		TokenType: resp.TokenType,
	})
}
