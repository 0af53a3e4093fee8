package profilestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/ifiscoder/CommunityApp/internal/adapters/postgres"
	"github.com/ifiscoder/CommunityApp/internal/domain"
	clockport "github.com/ifiscoder/CommunityApp/internal/ports/out/clock"
	"github.com/ifiscoder/CommunityApp/internal/ports/out/profilestore"
)

// Store is a Postgres implementation of profilestore.Store.
type Store struct {
	pool *pgxpool.Pool
	clk  clockport.Clock
}

func NewStore(pool *pgxpool.Pool, clk clockport.Clock) *Store {
	return &Store{pool: pool, clk: clk}
}

const profileColumns = `
	id,
	email,
	role,
	full_name,
	phone,
	photo_url,
	address_street,
	address_city,
	address_state,
	address_postal,
	date_of_birth,
	gender,
	occupation,
	emergency_contact_name,
	emergency_contact_phone,
	is_verified,
	is_approved,
	created_at,
	updated_at
`

func (s *Store) Get(ctx context.Context, id domain.MemberID) (*domain.Profile, error) {
	if s.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	row := s.pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		WHERE id = $1
	`, string(id))

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Absence is a valid result for Get.
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) Create(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	if s.pool == nil {
		return domain.Profile{}, errors.New("nil postgres pool")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (`+profileColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
	`,
		string(p.ID),
		p.Email,
		string(p.Role),
		p.FullName,
		p.Phone,
		p.PhotoURL,
		p.AddressStreet,
		p.AddressCity,
		p.AddressState,
		p.AddressPostal,
		utcPtr(p.DateOfBirth),
		p.Gender,
		p.Occupation,
		p.EmergencyContactName,
		p.EmergencyContactPhone,
		p.IsVerified,
		p.IsApproved,
		p.CreatedAt.UTC(),
		p.UpdatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			switch pe.ConstraintName {
			case "profiles_phone_unique":
				return domain.Profile{}, profilestore.ErrPhoneTaken
			case "profiles_pkey":
				return domain.Profile{}, profilestore.ErrAlreadyExists
			default:
				return domain.Profile{}, err
			}
		}
		return domain.Profile{}, err
	}

	stored, err := s.Get(ctx, p.ID)
	if err != nil {
		return domain.Profile{}, err
	}
	if stored == nil {
		return domain.Profile{}, profilestore.ErrNotFound
	}
	return *stored, nil
}

func (s *Store) Update(ctx context.Context, id domain.MemberID, patch profilestore.Patch) (domain.Profile, error) {
	if s.pool == nil {
		return domain.Profile{}, errors.New("nil postgres pool")
	}

	set, args := buildSet(patch)
	args = append(args, s.clk.Now().UTC())
	set = append(set, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, string(id))

	query := fmt.Sprintf(`
		UPDATE profiles
		SET %s
		WHERE id = $%d
	`, strings.Join(set, ", "), len(args))

	ct, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode && pe.ConstraintName == "profiles_phone_unique" {
			return domain.Profile{}, profilestore.ErrPhoneTaken
		}
		return domain.Profile{}, err
	}
	if ct.RowsAffected() == 0 {
		return domain.Profile{}, profilestore.ErrNotFound
	}

	stored, err := s.Get(ctx, id)
	if err != nil {
		return domain.Profile{}, err
	}
	if stored == nil {
		return domain.Profile{}, profilestore.ErrNotFound
	}
	return *stored, nil
}

func (s *Store) ListAll(ctx context.Context) ([]domain.Profile, error) {
	if s.pool == nil {
		return nil, errors.New("nil postgres pool")
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+profileColumns+`
		FROM profiles
		ORDER BY created_at DESC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) PhoneInUse(ctx context.Context, phone string) (bool, error) {
	if s.pool == nil {
		return false, errors.New("nil postgres pool")
	}
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM profiles WHERE phone = $1 AND phone <> '')
	`, phone).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// Delete removes a profile row. The privileged deletion path uses it when the
// deletion function runs in-process.
func (s *Store) Delete(ctx context.Context, id domain.MemberID) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	ct, err := s.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return profilestore.ErrNotFound
	}
	return nil
}

// --- helpers ---

func buildSet(patch profilestore.Patch) ([]string, []any) {
	set := make([]string, 0, 16)
	args := make([]any, 0, 16)

	addString := func(col string, o profilestore.Optional[string]) {
		if !o.IsSpecified() {
			return
		}
		if o.IsNull() {
			set = append(set, fmt.Sprintf("%s = NULL", col))
			return
		}
		args = append(args, o.Value())
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	addBool := func(col string, o profilestore.Optional[bool]) {
		if !o.IsSpecified() || o.IsNull() {
			return
		}
		args = append(args, o.Value())
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	addString("email", patch.Email)
	addString("full_name", patch.FullName)
	addString("phone", patch.Phone)
	addString("photo_url", patch.PhotoURL)
	addString("address_street", patch.AddressStreet)
	addString("address_city", patch.AddressCity)
	addString("address_state", patch.AddressState)
	addString("address_postal", patch.AddressPostal)
	addString("gender", patch.Gender)
	addString("occupation", patch.Occupation)
	addString("emergency_contact_name", patch.EmergencyContactName)
	addString("emergency_contact_phone", patch.EmergencyContactPhone)

	if patch.DateOfBirth.IsSpecified() {
		if patch.DateOfBirth.IsNull() {
			set = append(set, "date_of_birth = NULL")
		} else {
			args = append(args, patch.DateOfBirth.Value().UTC())
			set = append(set, fmt.Sprintf("date_of_birth = $%d", len(args)))
		}
	}
	addBool("is_verified", patch.IsVerified)
	addBool("is_approved", patch.IsApproved)

	return set, args
}

func scanProfile(row interface {
	Scan(dest ...any) error
}) (domain.Profile, error) {
	var (
		p           domain.Profile
		id          string
		role        string
		dateOfBirth *time.Time
	)
	if err := row.Scan(
		&id,
		&p.Email,
		&role,
		&p.FullName,
		&p.Phone,
		&p.PhotoURL,
		&p.AddressStreet,
		&p.AddressCity,
		&p.AddressState,
		&p.AddressPostal,
		&dateOfBirth,
		&p.Gender,
		&p.Occupation,
		&p.EmergencyContactName,
		&p.EmergencyContactPhone,
		&p.IsVerified,
		&p.IsApproved,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return domain.Profile{}, err
	}
	p.ID = domain.MemberID(id)
	p.Role = domain.ParseRole(role)
	p.DateOfBirth = utcPtr(dateOfBirth)
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
