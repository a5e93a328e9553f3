// Package model はドメインモデルを定義する。
package model

import "time"

// UserPreference はユーザーごとのフィード設定を表す。ユーザーと1対1。
// 3フィールドすべてが空の状態は「設定未構成」を意味し、
// パーソナライズフィードでは「0件マッチ」とは区別して扱う。
type UserPreference struct {
	UserID     string
	Sources    []string
	Categories []string
	Authors    []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsEmpty は3フィールドすべてが空かどうかを返す。
func (p *UserPreference) IsEmpty() bool {
	return len(p.Sources) == 0 && len(p.Categories) == 0 && len(p.Authors) == 0
}
