package classify

import (
	"testing"

	"github.com/mmcdole/gamedeck/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		item domain.Item
		want Category
	}{
		{"title keyword", domain.Item{ID: "1", Title: "Tank Battle"}, Action},
		{"case insensitive", domain.Item{ID: "1", Title: "TETRIS Deluxe"}, Puzzle},
		{"description keyword", domain.Item{ID: "1", Title: "Zoom", Description: "Drift around the bend"}, Racing},
		{"later category wins", domain.Item{ID: "1", Title: "Car Quiz"}, Quiz},
		{"shared keyword goes to last", domain.Item{ID: "1", Title: "General knowledge"}, Quiz},
		{"arcade over action", domain.Item{ID: "1", Title: "Retro Fight"}, Arcade},
		{"substring match", domain.Item{ID: "1", Title: "Scared"}, Racing},
		{"fallback 0", domain.Item{ID: "10", Title: "Zzz"}, Arcade},
		{"fallback 1", domain.Item{ID: "11", Title: "Zzz"}, Action},
		{"fallback 2", domain.Item{ID: "7", Title: "Zzz"}, Puzzle},
		{"fallback 3", domain.Item{ID: "3", Title: "Zzz"}, Skill},
		{"fallback 4", domain.Item{ID: "4", Title: "Zzz"}, Sport},
		{"non numeric id", domain.Item{ID: "abc", Title: "Zzz"}, Sport},
		{"negative id", domain.Item{ID: "-3", Title: "Zzz"}, Sport},
		{"empty item", domain.Item{}, Sport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.item); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCategoryTitle(t *testing.T) {
	if Educational.Title() != "Educational" {
		t.Fatalf("expected Educational, got %s", Educational.Title())
	}
	if Category("").Title() != "" {
		t.Fatalf("expected empty title")
	}
}
