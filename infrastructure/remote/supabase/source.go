// Package supabase implements the structure and detail ports against the
// managed Supabase backend that holds the genealogy data.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/sony/gobreaker"
	supa "github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"shajara/domain/tree"
	pkgerrors "shajara/pkg/errors"
)

// Column lists are split by phase: the structure fetch stays minimal so a
// multi-thousand-person snapshot remains a lightweight payload.
const (
	structureColumns = "id,name,father_id,mother_id,sibling_order,generation,hid,munasib"
	detailColumns    = "id,photo_url,bio,birth_year,death_year,version"
)

// Source talks to Supabase for both pipeline phases. All calls go through
// a circuit breaker so a flapping backend degrades to cached/text-only
// behavior instead of hammering the network.
type Source struct {
	client  *supa.Client
	table   string
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// New creates a Source for the given project.
func New(url, key, table string, logger *zap.Logger) (*Source, error) {
	client, err := supa.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "supabase",
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.8
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Source{client: client, table: table, breaker: breaker, logger: logger}, nil
}

type profileRow struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	FatherID     string `json:"father_id"`
	MotherID     string `json:"mother_id"`
	SiblingOrder int    `json:"sibling_order"`
	Generation   int    `json:"generation"`
	HID          string `json:"hid"`
	Munasib      bool   `json:"munasib"`
}

// FetchStructure returns the minimal-field snapshot of every person.
func (s *Source) FetchStructure(ctx context.Context) ([]tree.PersonRecord, error) {
	data, err := s.execute(func() ([]byte, error) {
		data, _, err := s.client.From(s.table).Select(structureColumns, "", false).Execute()
		return data, err
	})
	if err != nil {
		return nil, pkgerrors.NewNetworkError("structure query failed", err)
	}

	var rows []profileRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, pkgerrors.NewNetworkError("structure payload malformed", err)
	}

	records := make([]tree.PersonRecord, len(rows))
	for i, r := range rows {
		records[i] = tree.PersonRecord{
			ID:           r.ID,
			Name:         r.Name,
			FatherID:     r.FatherID,
			MotherID:     r.MotherID,
			SiblingOrder: r.SiblingOrder,
			Generation:   r.Generation,
			HID:          r.HID,
			Munasib:      r.Munasib,
		}
	}
	return records, nil
}

// FetchDetails returns full-detail records for exactly the given ids.
func (s *Source) FetchDetails(ctx context.Context, ids []string) ([]tree.NodeDetail, error) {
	if len(ids) == 0 {
		return []tree.NodeDetail{}, nil
	}

	data, err := s.execute(func() ([]byte, error) {
		data, _, err := s.client.From(s.table).
			Select(detailColumns, "", false).
			In("id", ids).
			Execute()
		return data, err
	})
	if err != nil {
		return nil, pkgerrors.NewEnrichmentError("detail query failed", err)
	}

	var details []tree.NodeDetail
	if err := json.Unmarshal(data, &details); err != nil {
		return nil, pkgerrors.NewEnrichmentError("detail payload malformed", err)
	}
	return details, nil
}

// UpdateProfile performs the optimistic compare-and-swap: the update is
// filtered on both id and the expected version, so a concurrent edit makes
// the filter match nothing and we report a conflict.
func (s *Source) UpdateProfile(ctx context.Context, id string, expectedVersion int64, update tree.ProfileUpdate) (tree.NodeDetail, error) {
	payload := map[string]interface{}{"version": expectedVersion + 1}
	if update.Name != "" {
		payload["name"] = update.Name
	}
	if update.Bio != "" {
		payload["bio"] = update.Bio
	}
	if update.PhotoURL != "" {
		payload["photo_url"] = update.PhotoURL
	}
	if update.BirthYear != 0 {
		payload["birth_year"] = update.BirthYear
	}
	if update.DeathYear != 0 {
		payload["death_year"] = update.DeathYear
	}

	data, err := s.execute(func() ([]byte, error) {
		data, _, err := s.client.From(s.table).
			Update(payload, "representation", "").
			Eq("id", id).
			Eq("version", strconv.FormatInt(expectedVersion, 10)).
			Execute()
		return data, err
	})
	if err != nil {
		return tree.NodeDetail{}, pkgerrors.NewNetworkError("profile update failed", err)
	}

	var updated []tree.NodeDetail
	if err := json.Unmarshal(data, &updated); err != nil {
		return tree.NodeDetail{}, pkgerrors.NewNetworkError("profile update payload malformed", err)
	}
	if len(updated) == 0 {
		return tree.NodeDetail{}, pkgerrors.NewConflictError("profile was modified by someone else")
	}
	return updated[0], nil
}

func (s *Source) execute(call func() ([]byte, error)) ([]byte, error) {
	result, err := s.breaker.Execute(func() (interface{}, error) {
		return call()
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
