package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"staff-match/internal/database"
	"staff-match/internal/domain/entity"
	"staff-match/internal/domain/matching"
	"staff-match/internal/usecase"
)

const kmPerDegreeLat = 111.32

type EntityWriter interface {
	UpsertEntity(ctx context.Context, e entity.Entity) error
}

func EncodeEntity(e entity.Entity) ([]byte, error) {
	if e == nil {
		return nil, fmt.Errorf("%w: nil entity", entity.ErrMalformed)
	}
	return json.Marshal(e)
}

func DecodeEntity(kind entity.Kind, payload []byte) (entity.Entity, error) {
	switch kind {
	case entity.KindJob:
		var j entity.Job
		if err := json.Unmarshal(payload, &j); err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrMalformed, err)
		}
		return &j, nil
	case entity.KindWorker:
		var w entity.Worker
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, fmt.Errorf("%w: %v", entity.ErrMalformed, err)
		}
		return &w, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", entity.ErrMalformed, kind)
	}
}

func skillNames(e entity.Entity) []string {
	out := make([]string, 0, len(e.Skills()))
	seen := map[string]bool{}
	for _, s := range e.Skills() {
		n := entity.NormalizeName(s.Name)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

func matchableStatus(kind entity.Kind) string {
	if kind == entity.KindJob {
		return entity.StatusOpen
	}
	return entity.StatusAvailable
}

type lngRange struct {
	min, max float64
}

type geoBox struct {
	minLat, maxLat float64
	lngs           []lngRange
}

// boundingBox returns a lat/lng rectangle that contains the circle of
// radiusKm around center. A box crossing the antimeridian is split into two
// longitude ranges.
func boundingBox(center entity.Location, radiusKm float64) geoBox {
	dLat := radiusKm / kmPerDegreeLat
	box := geoBox{minLat: center.Lat - dLat, maxLat: center.Lat + dLat}

	cos := math.Cos(center.Lat * math.Pi / 180)
	dLng := 180.0
	if cos > 1e-6 {
		dLng = radiusKm / (kmPerDegreeLat * cos)
	}
	if dLng >= 180 {
		box.lngs = []lngRange{{-180, 180}}
		return box
	}

	minLng, maxLng := center.Lng-dLng, center.Lng+dLng
	switch {
	case minLng < -180:
		box.lngs = []lngRange{{minLng + 360, 180}, {-180, maxLng}}
	case maxLng > 180:
		box.lngs = []lngRange{{minLng, 180}, {-180, maxLng - 360}}
	default:
		box.lngs = []lngRange{{minLng, maxLng}}
	}
	return box
}

type PostgresEntityRepository struct {
	db database.DB
}

func NewPostgresEntityRepository(db database.DB) *PostgresEntityRepository {
	return &PostgresEntityRepository{db: db}
}

func (r *PostgresEntityRepository) FetchEntity(ctx context.Context, kind entity.Kind, id string) (entity.Entity, error) {
	var payload []byte
	err := r.db.QueryRow(ctx,
		`SELECT payload FROM entities WHERE kind = $1 AND id = $2`,
		string(kind), strings.TrimSpace(id),
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, database.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s %s", usecase.ErrNotFound, kind, id)
		}
		return nil, err
	}
	return DecodeEntity(kind, payload)
}

// FetchPool pre-filters on status, a bounding box and skill overlap. Rows
// without coordinates are always returned. With a center the rows come
// closest first, so a limit keeps the nearest candidates. Rows that fail to
// decode are dropped so one bad record cannot fail the whole pool.
func (r *PostgresEntityRepository) FetchPool(ctx context.Context, spec usecase.PoolSpec) ([]entity.Entity, error) {
	where := []string{"kind = $1", "status = $2"}
	args := []any{string(spec.Kind), matchableStatus(spec.Kind)}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	order := "id"
	if spec.Near != nil && spec.RadiusKm > 0 {
		box := boundingBox(*spec.Near, spec.RadiusKm)
		lat := fmt.Sprintf("lat BETWEEN %s AND %s", arg(box.minLat), arg(box.maxLat))
		lngs := make([]string, 0, len(box.lngs))
		for _, lr := range box.lngs {
			lngs = append(lngs, fmt.Sprintf("lng BETWEEN %s AND %s", arg(lr.min), arg(lr.max)))
		}
		where = append(where, fmt.Sprintf("(lat IS NULL OR lng IS NULL OR (%s AND (%s)))", lat, strings.Join(lngs, " OR ")))
	}
	if len(spec.Skills) > 0 {
		where = append(where, "skill_names && "+arg(spec.Skills))
	}
	if spec.Near != nil {
		// Equirectangular distance in degrees, longitude wrapped at 180.
		lat, lng := arg(spec.Near.Lat), arg(spec.Near.Lng)
		cos := arg(math.Cos(spec.Near.Lat * math.Pi / 180))
		order = fmt.Sprintf(
			"(lat IS NULL OR lng IS NULL), power(lat - %s, 2) + power(least(abs(lng - %s), 360 - abs(lng - %s)) * %s, 2), cardinality(skill_names) DESC, id",
			lat, lng, lng, cos)
	}

	query := `SELECT payload FROM entities WHERE ` + strings.Join(where, " AND ") + ` ORDER BY ` + order
	if spec.Limit > 0 {
		query += " LIMIT " + arg(spec.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.Entity, 0)
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		e, err := DecodeEntity(spec.Kind, payload)
		if err != nil {
			continue
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresEntityRepository) UpsertEntity(ctx context.Context, e entity.Entity) error {
	payload, err := EncodeEntity(e)
	if err != nil {
		return err
	}
	var lat, lng *float64
	if loc := e.Location(); loc != nil {
		lat, lng = &loc.Lat, &loc.Lng
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO entities (id, kind, status, lat, lng, skill_names, payload, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (kind, id) DO UPDATE SET
			status = EXCLUDED.status,
			lat = EXCLUDED.lat,
			lng = EXCLUDED.lng,
			skill_names = EXCLUDED.skill_names,
			payload = EXCLUDED.payload,
			updated_at = EXCLUDED.updated_at`,
		e.EntityID(),
		string(e.Kind()),
		strings.ToLower(strings.TrimSpace(e.Status())),
		lat,
		lng,
		skillNames(e),
		payload,
		time.Now().UTC(),
	)
	return err
}

// MemoryEntityRepository keeps entities in process. Stored values are
// re-decoded on every read so callers never share state.
type MemoryEntityRepository struct {
	mu   sync.RWMutex
	data map[entity.Kind]map[string][]byte
}

func NewMemoryEntityRepository(seed ...entity.Entity) (*MemoryEntityRepository, error) {
	r := &MemoryEntityRepository{data: map[entity.Kind]map[string][]byte{
		entity.KindJob:    {},
		entity.KindWorker: {},
	}}
	for _, e := range seed {
		if err := r.UpsertEntity(context.Background(), e); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *MemoryEntityRepository) UpsertEntity(_ context.Context, e entity.Entity) error {
	payload, err := EncodeEntity(e)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.data[e.Kind()][e.EntityID()] = payload
	r.mu.Unlock()
	return nil
}

func (r *MemoryEntityRepository) FetchEntity(ctx context.Context, kind entity.Kind, id string) (entity.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	payload, ok := r.data[kind][strings.TrimSpace(id)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", usecase.ErrNotFound, kind, id)
	}
	return DecodeEntity(kind, payload)
}

// FetchPool applies the same pre-filters as the Postgres query with exact
// distances, then orders closest first before applying the limit.
func (r *MemoryEntityRepository) FetchPool(ctx context.Context, spec usecase.PoolSpec) ([]entity.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	payloads := make(map[string][]byte, len(r.data[spec.Kind]))
	for id, p := range r.data[spec.Kind] {
		payloads[id] = p
	}
	r.mu.RUnlock()

	wanted := make(map[string]bool, len(spec.Skills))
	for _, s := range spec.Skills {
		wanted[entity.NormalizeName(s)] = true
	}

	type pooled struct {
		e        entity.Entity
		distance float64
	}
	out := make([]pooled, 0, len(payloads))
	for _, p := range payloads {
		e, err := DecodeEntity(spec.Kind, p)
		if err != nil || !entity.IsMatchable(e) {
			continue
		}

		d := math.Inf(1)
		if spec.Near != nil && e.Location() != nil {
			d = matching.DistanceKm(*spec.Near, *e.Location())
			if spec.RadiusKm > 0 && d > spec.RadiusKm {
				continue
			}
		}
		if len(wanted) > 0 && !slices.ContainsFunc(skillNames(e), func(n string) bool { return wanted[n] }) {
			continue
		}
		out = append(out, pooled{e: e, distance: d})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].distance != out[j].distance {
			return out[i].distance < out[j].distance
		}
		if si, sj := len(out[i].e.Skills()), len(out[j].e.Skills()); si != sj {
			return si > sj
		}
		return out[i].e.EntityID() < out[j].e.EntityID()
	})
	if spec.Limit > 0 && len(out) > spec.Limit {
		out = out[:spec.Limit]
	}

	res := make([]entity.Entity, 0, len(out))
	for _, p := range out {
		res = append(res, p.e)
	}
	return res, nil
}
