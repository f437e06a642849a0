//go:build e2e

package e2e

import (
	"context"
	"os"
	"testing"

	"github.com/source-eva/yteva"
	"github.com/source-eva/yteva/types"
)

func skipUnlessEnabled(t *testing.T) {
	t.Helper()
	if os.Getenv("YTEVA_E2E") == "" {
		t.Skip("YTEVA_E2E not set")
	}
}

func TestE2E_Query(t *testing.T) {
	skipUnlessEnabled(t)

	s := yteva.New("").Search(context.Background(), "lofi hip hop", 5)
	if s.Err() != nil {
		t.Fatalf("e2e search failed: %v", s.Err())
	}
	res := s.Result()
	if len(res.Videos) == 0 || len(res.Videos) > 5 {
		t.Fatalf("Expected 1..5 videos, got %d", len(res.Videos))
	}
	for _, v := range res.Videos {
		if v.ID == "" || v.Link != "https://www.youtube.com/watch?v="+v.ID {
			t.Errorf("unexpected summary %+v", v)
		}
	}
}

func TestE2E_URL(t *testing.T) {
	skipUnlessEnabled(t)

	url := os.Getenv("YTEVA_E2E_URL")
	if url == "" {
		url = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	}
	s := yteva.New("").Search(context.Background(), url, 0)
	v, ok := s.FirstResult()
	if !ok {
		t.Fatalf("e2e lookup returned nothing: %v", s.Err())
	}
	if v.ID != s.VideoID() {
		t.Errorf("Expected id %s, got %s", s.VideoID(), v.ID)
	}
	if s.Result().Source == types.SourceSkeleton {
		t.Errorf("lookup degraded to skeleton: %v", s.Err())
	}
}

func TestE2E_AudioLink(t *testing.T) {
	skipUnlessEnabled(t)
	key := os.Getenv("YTEVA_API_KEY")
	if key == "" {
		t.Skip("YTEVA_API_KEY not set")
	}

	link, err := yteva.New(key).FetchAudioLink(context.Background(), "dQw4w9WgXcQ")
	if err != nil {
		t.Fatalf("e2e link failed: %v", err)
	}
	if link.URL == "" {
		t.Error("Expected a link URL")
	}
}
