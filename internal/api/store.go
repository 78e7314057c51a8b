package api

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TokenData is the middleware-facing view of a token row.
type TokenData struct {
	ID        string
	Token     string
	CallCount int
}

// TokenFetcher is what the authorization middleware needs from storage.
type TokenFetcher interface {
	FindTokenByString(token string) (TokenData, error)
}

// CallStore is what the usage recorder needs from storage.
type CallStore interface {
	CreateCall(requestType, requestBody string) (Call, error)
	AppendCall(tokenString, callID string) error
}

// TokenStore is the GORM-backed implementation of both interfaces.
type TokenStore struct {
	DB *gorm.DB
}

func (s TokenStore) FindTokenByString(tokenString string) (TokenData, error) {
	var t Token
	err := s.DB.First(&t, "token = ?", tokenString).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return TokenData{}, ErrTokenNotFound
	}
	if err != nil {
		return TokenData{}, err
	}
	return TokenData{ID: t.ID, Token: t.Token, CallCount: len(t.CallIDs)}, nil
}

func (s TokenStore) CreateCall(requestType, requestBody string) (Call, error) {
	call := Call{
		ID:          uuid.NewString(),
		RequestType: requestType,
		RequestBody: requestBody,
		CreatedAt:   time.Now(),
	}
	if err := s.DB.Create(&call).Error; err != nil {
		return Call{}, err
	}
	return call, nil
}

// AppendCall adds a call reference to the token's history. The length
// guard lives in the same UPDATE, so two concurrent appends on one
// token cannot push the history past MaxCalls.
func (s TokenStore) AppendCall(tokenString, callID string) error {
	res := s.DB.Exec(
		`UPDATE api.tokens SET call_ids = array_append(call_ids, ?) WHERE token = ? AND cardinality(call_ids) < ?`,
		callID, tokenString, MaxCalls,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// Nothing updated: either the token is gone or it is full.
	var count int64
	if err := s.DB.Model(&Token{}).Where("token = ?", tokenString).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrTokenVanished
	}
	return ErrQuotaExceeded
}

// CallsInOrder resolves a token's call history, preserving the
// insertion order recorded in call_ids.
func (s TokenStore) CallsInOrder(t Token) ([]Call, error) {
	if len(t.CallIDs) == 0 {
		return []Call{}, nil
	}

	var calls []Call
	err := s.DB.Where("id = ANY(?)", t.CallIDs).Find(&calls).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[string]Call, len(calls))
	for _, c := range calls {
		byID[c.ID] = c
	}

	ordered := make([]Call, 0, len(t.CallIDs))
	for _, id := range t.CallIDs {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}
