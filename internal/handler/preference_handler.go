package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/hitoshi/newshub/internal/middleware"
	"github.com/hitoshi/newshub/internal/model"
)

// PreferenceServiceInterface は設定ハンドラーが必要とするサービスインターフェース。
type PreferenceServiceInterface interface {
	// Get は指定ユーザーの設定を返す。未登録なら全フィールド空の設定を返す。
	Get(ctx context.Context, userID string) (*model.UserPreference, error)
	// Set は設定を全置換保存する。空白エントリは保存前に除去される。
	Set(ctx context.Context, userID string, sources, categories, authors []string) (*model.UserPreference, error)
	// Delete は設定を削除する。存在しない場合もエラーにしない。
	Delete(ctx context.Context, userID string) error
}

// FilterOptionsProvider は選択可能なフィルタ値の取得インターフェース。
type FilterOptionsProvider interface {
	FilterOptions(ctx context.Context) (*model.FilterOptions, error)
}

// PreferenceHandler はユーザー設定APIのHTTPハンドラー。
type PreferenceHandler struct {
	service PreferenceServiceInterface
	options FilterOptionsProvider
}

// NewPreferenceHandler はPreferenceHandlerを生成する。
func NewPreferenceHandler(service PreferenceServiceInterface, options FilterOptionsProvider) *PreferenceHandler {
	return &PreferenceHandler{service: service, options: options}
}

// preferenceValues は設定値のJSON表現。
type preferenceValues struct {
	Sources    []string `json:"sources"`
	Categories []string `json:"categories"`
	Authors    []string `json:"authors"`
}

func toPreferenceValues(pref *model.UserPreference) preferenceValues {
	values := preferenceValues{
		Sources:    pref.Sources,
		Categories: pref.Categories,
		Authors:    pref.Authors,
	}
	if values.Sources == nil {
		values.Sources = []string{}
	}
	if values.Categories == nil {
		values.Categories = []string{}
	}
	if values.Authors == nil {
		values.Authors = []string{}
	}
	return values
}

// Show は現在の設定と選択可能なフィルタ値を取得する。
// GET /api/preferences
func (h *PreferenceHandler) Show(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	pref, err := h.service.Get(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	availableOptions, err := h.options.FilterOptions(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data": map[string]interface{}{
			"preferences":       toPreferenceValues(pref),
			"available_options": availableOptions,
		},
	})
}

// Store は設定を作成または全置換更新する。
// POST|PUT /api/preferences
// sources/categories/authorsはいずれも省略可能な文字列配列。
// 型違反は422でフィールド別エラーを返す。
func (h *PreferenceHandler) Store(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	fieldErrors := map[string][]string{}
	sources := parseStringArray(body["sources"], "sources", fieldErrors)
	categories := parseStringArray(body["categories"], "categories", fieldErrors)
	authors := parseStringArray(body["authors"], "authors", fieldErrors)

	if len(fieldErrors) > 0 {
		writeAPIErrorResponse(w, http.StatusUnprocessableEntity, model.NewValidationError(fieldErrors))
		return
	}

	pref, err := h.service.Set(r.Context(), userID, sources, categories, authors)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Preferences saved successfully",
		"data":    toPreferenceValues(pref),
	})
}

// Destroy は設定を削除する。設定が存在しない場合も200を返す。
// DELETE /api/preferences
func (h *PreferenceHandler) Destroy(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.Delete(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Preferences deleted successfully",
	})
}

// parseStringArray はフィールドを省略可能な文字列配列として検証する。
// 省略またはnullは空として扱い、配列以外・文字列以外の要素は
// fieldErrorsにフィールド別メッセージを追加する。
func parseStringArray(raw json.RawMessage, field string, fieldErrors map[string][]string) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		fieldErrors[field] = append(fieldErrors[field],
			fmt.Sprintf("The %s must be an array.", field))
		return nil
	}

	values := make([]string, 0, len(elements))
	for i, element := range elements {
		var v string
		if err := json.Unmarshal(element, &v); err != nil {
			fieldErrors[field] = append(fieldErrors[field],
				fmt.Sprintf("The %s.%d must be a string.", field, i))
			continue
		}
		values = append(values, v)
	}
	return values
}
