package citizen

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provê acesso à tabela personal_data.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria um novo repositório de cidadãos.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const fullColumns = `
        user_id, citizen_id, first_name, last_name, date_of_birth, mobile, email, notification,
        address_line1, address_line2, subdistrict, district, province, postcode,
        COALESCE(is_registered, false), registered_at, created_at`

// EnsureSchema cria a tabela e aplica a evolução aditiva de colunas.
// CREATE TABLE IF NOT EXISTS não altera tabelas já existentes, então as
// colunas de endereço e de registro entram por ADD COLUMN IF NOT EXISTS.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS personal_data (
            user_id VARCHAR(255) PRIMARY KEY,
            citizen_id VARCHAR(255) UNIQUE,
            first_name VARCHAR(255),
            last_name VARCHAR(255),
            date_of_birth VARCHAR(255),
            mobile VARCHAR(255),
            email VARCHAR(255),
            notification VARCHAR(50),
            created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`,
		`ALTER TABLE personal_data ADD COLUMN IF NOT EXISTS address_line1 VARCHAR(255)`,
		`ALTER TABLE personal_data ADD COLUMN IF NOT EXISTS address_line2 VARCHAR(255)`,
		`ALTER TABLE personal_data ADD COLUMN IF NOT EXISTS subdistrict VARCHAR(255)`,
		`ALTER TABLE personal_data ADD COLUMN IF NOT EXISTS district VARCHAR(255)`,
		`ALTER TABLE personal_data ADD COLUMN IF NOT EXISTS province VARCHAR(255)`,
		`ALTER TABLE personal_data ADD COLUMN IF NOT EXISTS postcode VARCHAR(20)`,
		`ALTER TABLE personal_data ADD COLUMN IF NOT EXISTS is_registered BOOLEAN DEFAULT false`,
		`ALTER TABLE personal_data ADD COLUMN IF NOT EXISTS registered_at TIMESTAMP NULL`,
	}

	for _, stmt := range statements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return &StoreError{Err: err}
		}
	}
	return nil
}

// FindRefByCitizenID verifica a existência de um cidadão pela chave natural.
func (r *Repository) FindRefByCitizenID(ctx context.Context, citizenID string) (*Ref, error) {
	const query = `
        SELECT user_id, citizen_id, COALESCE(is_registered, false)
        FROM personal_data
        WHERE citizen_id = $1
    `

	var ref Ref
	row := r.pool.QueryRow(ctx, query, citizenID)
	if err := row.Scan(&ref.UserID, &ref.CitizenID, &ref.IsRegistered); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Err: err}
	}
	return &ref, nil
}

// UpsertProfile insere ou atualiza apenas os campos de perfil.
// A cláusula de conflito em citizen_id é o mecanismo de correção sob
// concorrência; endereço e status de registro nunca são tocados aqui.
func (r *Repository) UpsertProfile(ctx context.Context, c Citizen) error {
	const query = `
        INSERT INTO personal_data (user_id, citizen_id, first_name, last_name, date_of_birth, mobile, email, notification)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        ON CONFLICT (citizen_id) DO UPDATE SET
            first_name   = EXCLUDED.first_name,
            last_name    = EXCLUDED.last_name,
            mobile       = EXCLUDED.mobile,
            email        = EXCLUDED.email,
            notification = EXCLUDED.notification
    `

	_, err := r.pool.Exec(ctx, query,
		c.UserID, c.CitizenID, c.FirstName, c.LastName, c.DateOfBirth, c.Mobile, c.Email, c.Notification)
	if err != nil {
		return &StoreError{Err: err}
	}
	return nil
}

// UpsertRegistration insere ou atualiza o registro completo, incluindo
// endereço, e marca o cidadão como registrado. registered_at preserva o
// primeiro valor para que reenvios idênticos sejam no-ops campo a campo.
func (r *Repository) UpsertRegistration(ctx context.Context, c Citizen) (*Citizen, error) {
	const query = `
        INSERT INTO personal_data (
            user_id, citizen_id, first_name, last_name, date_of_birth, mobile, email, notification,
            address_line1, address_line2, subdistrict, district, province, postcode,
            is_registered, registered_at
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, true, now())
        ON CONFLICT (citizen_id) DO UPDATE SET
            first_name    = EXCLUDED.first_name,
            last_name     = EXCLUDED.last_name,
            date_of_birth = EXCLUDED.date_of_birth,
            mobile        = EXCLUDED.mobile,
            email         = EXCLUDED.email,
            notification  = EXCLUDED.notification,
            address_line1 = EXCLUDED.address_line1,
            address_line2 = EXCLUDED.address_line2,
            subdistrict   = EXCLUDED.subdistrict,
            district      = EXCLUDED.district,
            province      = EXCLUDED.province,
            postcode      = EXCLUDED.postcode,
            is_registered = true,
            registered_at = COALESCE(personal_data.registered_at, now())
        RETURNING` + fullColumns

	row := r.pool.QueryRow(ctx, query,
		c.UserID, c.CitizenID, c.FirstName, c.LastName, c.DateOfBirth, c.Mobile, c.Email, c.Notification,
		c.AddressLine1, c.AddressLine2, c.Subdistrict, c.District, c.Province, c.Postcode)

	return scanCitizen(row)
}

// GetByCitizenOrUser busca o registro completo; citizenId tem precedência.
// O chamador garante que pelo menos uma das chaves foi informada.
func (r *Repository) GetByCitizenOrUser(ctx context.Context, citizenID, userID string) (*Citizen, error) {
	query := `SELECT` + fullColumns + ` FROM personal_data WHERE citizen_id = $1`
	key := citizenID
	if citizenID == "" {
		query = `SELECT` + fullColumns + ` FROM personal_data WHERE user_id = $1`
		key = userID
	}

	row := r.pool.QueryRow(ctx, query, key)
	return scanCitizen(row)
}

func scanCitizen(row pgx.Row) (*Citizen, error) {
	var c Citizen
	err := row.Scan(
		&c.UserID, &c.CitizenID, &c.FirstName, &c.LastName, &c.DateOfBirth, &c.Mobile, &c.Email, &c.Notification,
		&c.AddressLine1, &c.AddressLine2, &c.Subdistrict, &c.District, &c.Province, &c.Postcode,
		&c.IsRegistered, &c.RegisteredAt, &c.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, &StoreError{Err: err}
	}
	return &c, nil
}
