// Package store persists posts, personnel and occurrences in PostgreSQL.
//
// Writes that carry business rules on the database side go through the
// stored procedures upsert_posto and insert_colaborador. Everything else is
// plain SQL against the postos, colaboradores and ocorrencias tables and the
// v_alertas_afastamentos_7d view.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JonMunkholm/vmapp/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// Postgres implements core.Store.
type Postgres struct {
	db DBTX
}

var _ core.Store = (*Postgres)(nil)

// New returns a store backed by db, usually a *pgxpool.Pool.
func New(db DBTX) *Postgres {
	return &Postgres{db: db}
}

// ============================================================================
// Posts
// ============================================================================

const upsertPostSQL = `
SELECT id_posto FROM upsert_posto(
	p_posto_nome => $1,
	p_nro_posto => $2,
	p_sequencial => $3,
	p_contrato => $4,
	p_ano => $5,
	p_turno => $6,
	p_lotacao_macro => $7,
	p_lotacao => $8,
	p_descritivo_lotacao => $9,
	p_cidade => $10,
	p_status => $11
)`

// UpsertPost saves a post keyed by its identifier and returns the identifier
// the procedure stored.
func (p *Postgres) UpsertPost(ctx context.Context, in core.PostInput) (string, error) {
	var id pgtype.Text
	err := p.db.QueryRow(ctx, upsertPostSQL,
		in.Name,
		in.Number,
		in.Sequence,
		in.Contract,
		in.Year,
		in.Shift,
		ToPgText(in.LotacaoMacro),
		ToPgText(in.Lotacao),
		ToPgText(in.Description),
		ToPgText(in.City),
		in.Status,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert_posto: %w", err)
	}
	return id.String, nil
}

const listPostsSQL = `
SELECT id::text AS id,
	coalesce(id_posto, '') AS id_posto,
	coalesce(posto_nome, '') AS posto_nome,
	coalesce(nro_posto, 0)::int AS nro_posto,
	coalesce(sequencial, 0)::int AS sequencial,
	coalesce(contrato, '') AS contrato,
	coalesce(ano, 0)::int AS ano,
	coalesce(turno, '') AS turno,
	coalesce(lotacao_macro, '') AS lotacao_macro,
	coalesce(lotacao, '') AS lotacao,
	coalesce(descritivo_lotacao, '') AS descritivo_lotacao,
	coalesce(cidade, '') AS cidade,
	coalesce(status, '') AS status
FROM postos
ORDER BY id_posto
LIMIT $1`

// ListPosts returns up to limit posts ordered by identifier.
func (p *Postgres) ListPosts(ctx context.Context, limit int) ([]core.Post, error) {
	rows, err := p.db.Query(ctx, listPostsSQL, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	posts, err := pgx.CollectRows(rows, pgx.RowToStructByName[core.Post])
	if err != nil {
		return nil, fmt.Errorf("scan posts: %w", err)
	}
	return posts, nil
}

// VacatePost marks post id as vacant. Posts are never deleted.
func (p *Postgres) VacatePost(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, `UPDATE postos SET status = $2 WHERE id = $1`,
		ToPgUUID(id), core.StatusVacant)
	if err != nil {
		return fmt.Errorf("vacate post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ListLotacoes returns the raw lotação values of every post that has one.
func (p *Postgres) ListLotacoes(ctx context.Context) ([]string, error) {
	rows, err := p.db.Query(ctx, `SELECT lotacao FROM postos WHERE lotacao IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("list lotacoes: %w", err)
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan lotacoes: %w", err)
	}
	return values, nil
}

// ============================================================================
// Personnel
// ============================================================================

const insertPersonnelSQL = `
SELECT insert_colaborador(
	p_nome => $1,
	p_sexo => $2,
	p_cpf => $3,
	p_profissao => $4,
	p_data_admissao => $5,
	p_ctps => $6,
	p_serie_ctps => $7,
	p_ocupacao => $8,
	p_matricula => $9,
	p_posto_nome => $10,
	p_nr_posto => $11,
	p_id_posto_ref => $12,
	p_lotacao => $13
)`

// InsertPersonnel creates a personnel record through insert_colaborador.
func (p *Postgres) InsertPersonnel(ctx context.Context, rec core.PersonnelRecord) error {
	_, err := p.db.Exec(ctx, insertPersonnelSQL,
		rec.Name,
		rec.Sex,
		rec.CPF,
		rec.Profession,
		ToPgDate(rec.AdmissionDate),
		ToPgText(rec.CTPS),
		ToPgText(rec.CTPSSeries),
		rec.Occupation,
		rec.Matricula,
		rec.PostName,
		rec.PostNumber,
		rec.PostRef,
		rec.Lotacao,
	)
	if err != nil {
		return fmt.Errorf("insert_colaborador: %w", err)
	}
	return nil
}

const updatePersonnelSQL = `
UPDATE colaboradores SET
	matricula = $2,
	nome = $3,
	sexo = $4,
	profissao = $5,
	posto_nome = $6,
	nr_posto = $7,
	id_posto_ref = $8,
	lotacao = $9,
	data_admissao = $10,
	ocupacao = $11
WHERE id = $1`

// UpdatePersonnel overwrites the editable fields of record id.
// CPF and work-card fields are not part of the update.
func (p *Postgres) UpdatePersonnel(ctx context.Context, id string, rec core.PersonnelRecord) error {
	tag, err := p.db.Exec(ctx, updatePersonnelSQL,
		ToPgUUID(id),
		rec.Matricula,
		rec.Name,
		rec.Sex,
		rec.Profession,
		rec.PostName,
		rec.PostNumber,
		rec.PostRef,
		rec.Lotacao,
		ToPgDate(rec.AdmissionDate),
		rec.Occupation,
	)
	if err != nil {
		return fmt.Errorf("update personnel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeactivatePersonnel soft-deletes record id.
func (p *Postgres) DeactivatePersonnel(ctx context.Context, id string) error {
	tag, err := p.db.Exec(ctx, `UPDATE colaboradores SET ativo = false WHERE id = $1`, ToPgUUID(id))
	if err != nil {
		return fmt.Errorf("deactivate personnel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

const personnelColumns = `
	id::text AS id,
	coalesce(matricula, '') AS matricula,
	coalesce(nome, '') AS nome,
	coalesce(sexo, '') AS sexo,
	coalesce(cpf, '') AS cpf,
	coalesce(profissao, '') AS profissao,
	coalesce(posto_nome, '') AS posto_nome,
	coalesce(nr_posto, 0)::int AS nr_posto,
	coalesce(id_posto_ref, '') AS id_posto_ref,
	coalesce(lotacao, '') AS lotacao,
	coalesce(data_admissao::text, '') AS data_admissao,
	coalesce(ocupacao, '') AS ocupacao,
	ativo`

// ListPersonnel returns up to limit personnel ordered by name. Records with
// ativo NULL count as active; only ativo=false is hidden.
func (p *Postgres) ListPersonnel(ctx context.Context, limit int) ([]core.Personnel, error) {
	rows, err := p.db.Query(ctx, `SELECT`+personnelColumns+`
FROM colaboradores
WHERE ativo IS DISTINCT FROM false
ORDER BY nome
LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list personnel: %w", err)
	}
	return collectPersonnel(rows)
}

// PersonnelByIDs loads the personnel with the given ids, in no particular order.
func (p *Postgres) PersonnelByIDs(ctx context.Context, ids []string) ([]core.Personnel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := p.db.Query(ctx, `SELECT`+personnelColumns+`
FROM colaboradores
WHERE id::text = ANY($1::text[])`, ids)
	if err != nil {
		return nil, fmt.Errorf("personnel by ids: %w", err)
	}
	return collectPersonnel(rows)
}

func collectPersonnel(rows pgx.Rows) ([]core.Personnel, error) {
	people, err := pgx.CollectRows(rows, pgx.RowToStructByName[core.Personnel])
	if err != nil {
		return nil, fmt.Errorf("scan personnel: %w", err)
	}
	return people, nil
}

// FindPersonnelByCPF calls find_colaborador_by_cpf.
func (p *Postgres) FindPersonnelByCPF(ctx context.Context, cpf string) ([]core.Personnel, error) {
	return queryJSON[core.Personnel](ctx, p.db,
		`SELECT row_to_json(f)::text FROM find_colaborador_by_cpf(p_cpf => $1) AS f`, cpf)
}

// FindPersonnelByMatricula calls find_colaborador_by_matricula.
func (p *Postgres) FindPersonnelByMatricula(ctx context.Context, matricula string) ([]core.Personnel, error) {
	return queryJSON[core.Personnel](ctx, p.db,
		`SELECT row_to_json(f)::text FROM find_colaborador_by_matricula(p_matricula => $1) AS f`, matricula)
}

// ============================================================================
// Occurrences
// ============================================================================

// InsertOccurrence stores o. The number and total_dias columns are filled by
// the database.
func (p *Postgres) InsertOccurrence(ctx context.Context, o core.Occurrence) error {
	start, _ := core.ParseDate(o.StartDate)
	end, _ := core.ParseDate(o.EndDate)

	_, err := p.db.Exec(ctx, `
INSERT INTO ocorrencias (colaborador_id, posto_id, motivo, data_inicio, data_fim, tipo_substituicao, substituto)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ToPgUUID(o.PersonnelID),
		o.PostID,
		o.Reason,
		ToPgDate(start),
		ToPgDate(end),
		o.SubstitutionType,
		ToPgText(o.Substitute),
	)
	if err != nil {
		return fmt.Errorf("insert occurrence: %w", err)
	}
	return nil
}

const listOccurrencesSQL = `
SELECT numero::bigint AS numero,
	coalesce(colaborador_id::text, '') AS colaborador_id,
	coalesce(posto_id, '') AS posto_id,
	coalesce(motivo, '') AS motivo,
	coalesce(data_inicio::text, '') AS data_inicio,
	coalesce(data_fim::text, '') AS data_fim,
	total_dias::int AS total_dias,
	coalesce(tipo_substituicao, '') AS tipo_substituicao,
	coalesce(substituto, '') AS substituto
FROM ocorrencias
WHERE ($2::date IS NULL OR data_inicio >= $2)
	AND ($3::date IS NULL OR data_inicio <= $3)
ORDER BY numero DESC
LIMIT $1`

// ListOccurrences returns the newest occurrences first, bounded by q.
func (p *Postgres) ListOccurrences(ctx context.Context, q core.OccurrenceQuery) ([]core.Occurrence, error) {
	rows, err := p.db.Query(ctx, listOccurrencesSQL, q.Limit, ToPgDate(q.StartFrom), ToPgDate(q.StartTo))
	if err != nil {
		return nil, fmt.Errorf("list occurrences: %w", err)
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByName[core.Occurrence])
	if err != nil {
		return nil, fmt.Errorf("scan occurrences: %w", err)
	}
	return list, nil
}

// ============================================================================
// Dashboard
// ============================================================================

// CountActivePersonnel counts personnel with ativo=true.
func (p *Postgres) CountActivePersonnel(ctx context.Context) (int64, error) {
	var n int64
	if err := p.db.QueryRow(ctx, `SELECT count(*) FROM colaboradores WHERE ativo = true`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active personnel: %w", err)
	}
	return n, nil
}

// CountFilledPosts counts posts with status PREENCHIDO.
func (p *Postgres) CountFilledPosts(ctx context.Context) (int64, error) {
	var n int64
	err := p.db.QueryRow(ctx, `SELECT count(*) FROM postos WHERE status = $1`, core.StatusFilled).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count filled posts: %w", err)
	}
	return n, nil
}

// AbsenceAlerts reads the absences ending within the next seven days.
func (p *Postgres) AbsenceAlerts(ctx context.Context) ([]core.AbsenceAlert, error) {
	return queryJSON[core.AbsenceAlert](ctx, p.db,
		`SELECT row_to_json(v)::text FROM v_alertas_afastamentos_7d AS v`)
}

// queryJSON runs a query returning one JSON document per row and decodes
// each into T. Used for procedures and views whose column set is owned by
// the database.
func queryJSON[T any](ctx context.Context, db DBTX, sql string, args ...any) ([]T, error) {
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	docs, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, err
	}

	out := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := json.Unmarshal([]byte(doc), &v); err != nil {
			return nil, fmt.Errorf("decode row: %w", err)
		}
		out = append(out, v)
	}
	return out, nil
}
