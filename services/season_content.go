package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"season-reward-system/models"
	"season-reward-system/utils"

	"github.com/gosimple/slug"
)

// SeasonContent holds the season definition for the process lifetime.
// Loaded once at startup from local content or R2 — immutable afterwards.
// ResolveActiveSeason is the single capability check every accrual and claim
// entry point consults.
type SeasonContent struct {
	season *models.SeasonDefinition

	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

func NewSeasonContent(season *models.SeasonDefinition) *SeasonContent {
	normalizeSeason(season)
	return &SeasonContent{season: season, Now: time.Now}
}

// LoadSeasonContent reads the season definition from SEASON_CONTENT_KEY in
// the R2 bucket when set, otherwise from the SEASON_CONTENT_FILE path.
// A service can boot with no season configured — every season operation then
// reports season_not_found.
func LoadSeasonContent() (*SeasonContent, error) {
	var raw []byte
	var err error

	if key := os.Getenv("SEASON_CONTENT_KEY"); key != "" {
		raw, err = utils.FetchObjectFromR2(key)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch season content from R2: %w", err)
		}
		log.Printf("📦 Season content loaded from R2 key %s", key)
	} else if path := os.Getenv("SEASON_CONTENT_FILE"); path != "" {
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read season content file: %w", err)
		}
		log.Printf("📦 Season content loaded from %s", path)
	} else {
		log.Println("⚠️  No season content configured — season features disabled")
		return NewSeasonContent(nil), nil
	}

	var season models.SeasonDefinition
	if err := json.Unmarshal(raw, &season); err != nil {
		return nil, fmt.Errorf("invalid season content JSON: %w", err)
	}
	return NewSeasonContent(&season), nil
}

// normalizeSeason fills missing ids from names so content authors can omit
// them.
func normalizeSeason(s *models.SeasonDefinition) {
	if s == nil {
		return
	}
	if s.ID == "" {
		s.ID = slug.Make(fmt.Sprintf("season-%d-%s", s.Number, s.Name))
	}
	for i := range s.Events {
		if s.Events[i].ID == "" {
			s.Events[i].ID = slug.Make(s.Events[i].Name)
		}
	}
}

// Season returns the loaded definition (nil when none configured).
func (sc *SeasonContent) Season() *models.SeasonDefinition { return sc.season }

func (sc *SeasonContent) now() time.Time {
	if sc.Now != nil {
		return sc.Now()
	}
	return time.Now()
}

// ResolveActiveSeason returns the season when one exists and its window is
// open. season_not_found / season_inactive otherwise.
func (sc *SeasonContent) ResolveActiveSeason() (*models.SeasonDefinition, error) {
	if sc.season == nil {
		return nil, ErrSeasonNotFound
	}
	if !sc.season.Active(sc.now()) {
		return nil, ErrSeasonInactive
	}
	return sc.season, nil
}

// ResolveSeason returns the season regardless of its window.
func (sc *SeasonContent) ResolveSeason() (*models.SeasonDefinition, error) {
	if sc.season == nil {
		return nil, ErrSeasonNotFound
	}
	return sc.season, nil
}

// SeasonEnded reports whether the configured season's window has closed.
func (sc *SeasonContent) SeasonEnded() bool {
	return sc.season.Ended(sc.now())
}
