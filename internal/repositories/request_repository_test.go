package repositories

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ugcstudio/backend/internal/models"
)

func TestVariantColumnsCoalescesNilTones(t *testing.T) {
	request := models.Request{
		ID:   "r1",
		Kind: models.KindEditing,
		Editing: &models.EditingDetails{
			ProjectName:   "Launch Teaser",
			RawFootageURL: "/uploads/raw/launch.mp4",
			EditingStyle:  "fast-cut",
		},
	}

	ad, editing := variantColumns(request)
	if editing.ProjectName != "Launch Teaser" {
		t.Fatalf("editing details not carried over: %+v", editing)
	}
	if ad.SelectedTones == nil {
		t.Fatal("expected empty tone slice for editing-kind rows, got nil")
	}

	// The selected_tones column is NOT NULL, so the bound value must encode
	// as an empty array rather than SQL NULL.
	typeMap := pgtype.NewMap()
	buf, err := typeMap.Encode(pgtype.TextArrayOID, pgtype.TextFormatCode, ad.SelectedTones, nil)
	if err != nil {
		t.Fatalf("encode tones: %v", err)
	}
	if buf == nil {
		t.Fatal("empty tone slice encoded as SQL NULL")
	}
}

func TestVariantColumnsKeepsAdTones(t *testing.T) {
	request := models.Request{
		ID:   "r2",
		Kind: models.KindAd,
		Ad: &models.AdDetails{
			BrandName:     "Acme",
			SelectedTones: []string{"Gen Z Tone", "Fun Tone", "Professional Tone"},
		},
	}

	ad, _ := variantColumns(request)
	if len(ad.SelectedTones) != 3 {
		t.Fatalf("expected 3 tones, got %v", ad.SelectedTones)
	}
}
