package preference

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/newshub/internal/model"
)

// mockPreferenceRepo はテスト用のPreferenceRepositoryモック。
type mockPreferenceRepo struct {
	pref       *model.UserPreference
	findErr    error
	upserted   *model.UserPreference
	upsertErr  error
	deletedFor string
	deleteErr  error
}

func (m *mockPreferenceRepo) FindByUserID(_ context.Context, _ string) (*model.UserPreference, error) {
	return m.pref, m.findErr
}

func (m *mockPreferenceRepo) Upsert(_ context.Context, pref *model.UserPreference) error {
	m.upserted = pref
	return m.upsertErr
}

func (m *mockPreferenceRepo) DeleteByUserID(_ context.Context, userID string) error {
	m.deletedFor = userID
	return m.deleteErr
}

func TestService_Get_NotFound_ReturnsEmptyPreference(t *testing.T) {
	repo := &mockPreferenceRepo{pref: nil}
	svc := NewService(repo)

	got, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got == nil {
		t.Fatal("Get() = nil, 未登録でも空の設定が返されるべき")
	}
	if got.UserID != "user-1" {
		t.Errorf("UserID = %q", got.UserID)
	}
	if got.Sources == nil || got.Categories == nil || got.Authors == nil {
		t.Errorf("Get() = %+v, 各フィールドはnilではなく空スライスであるべき", got)
	}
	if len(got.Sources) != 0 || len(got.Categories) != 0 || len(got.Authors) != 0 {
		t.Errorf("Get() = %+v, 全フィールド空であるべき", got)
	}
}

func TestService_Get_Found(t *testing.T) {
	want := &model.UserPreference{UserID: "user-1", Sources: []string{"BBC News"}}
	repo := &mockPreferenceRepo{pref: want}
	svc := NewService(repo)

	got, err := svc.Get(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != want {
		t.Errorf("Get() = %+v, want %+v", got, want)
	}
}

func TestService_Set_FiltersBlankEntries(t *testing.T) {
	repo := &mockPreferenceRepo{}
	svc := NewService(repo)

	got, err := svc.Set(context.Background(), "user-1",
		[]string{"BBC News", "", "  ", "NewsAPI"},
		[]string{"\t", "technology"},
		nil,
	)
	if err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if len(got.Sources) != 2 || got.Sources[0] != "BBC News" || got.Sources[1] != "NewsAPI" {
		t.Errorf("Sources = %v, 空白エントリが除去されるべき", got.Sources)
	}
	if len(got.Categories) != 1 || got.Categories[0] != "technology" {
		t.Errorf("Categories = %v", got.Categories)
	}
	if got.Authors == nil || len(got.Authors) != 0 {
		t.Errorf("Authors = %v, nil入力は空スライスになるべき", got.Authors)
	}

	if repo.upserted != got {
		t.Error("フィルタ後の設定がそのまま保存されるべき")
	}
}

func TestService_Set_UpsertFailurePropagates(t *testing.T) {
	repo := &mockPreferenceRepo{upsertErr: errors.New("connection lost")}
	svc := NewService(repo)

	if _, err := svc.Set(context.Background(), "user-1", nil, nil, nil); err == nil {
		t.Fatal("Set() error = nil, 保存失敗は伝播するべき")
	}
}

func TestService_Delete_Succeeds(t *testing.T) {
	repo := &mockPreferenceRepo{}
	svc := NewService(repo)

	if err := svc.Delete(context.Background(), "user-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if repo.deletedFor != "user-1" {
		t.Errorf("deletedFor = %q", repo.deletedFor)
	}
}
