// Package persistence is the Persistence Adapter: SQLite schema, per-entity
// Save/Load methods (there is no single call that saves the whole world
// state), and best-effort ALTER TABLE migrations, ported from the teacher's internal/persistence/
// db.go structure with the entity set replaced end to end for AIcity's
// data model.
package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
	"github.com/rs/zerolog"

	"github.com/aicity/aicity/internal/agents"
	"github.com/aicity/aicity/internal/cases"
	"github.com/aicity/aicity/internal/eventlog"
	"github.com/aicity/aicity/internal/gangs"
	"github.com/aicity/aicity/internal/ledger"
	"github.com/aicity/aicity/internal/projects"
)

// DB wraps a sqlx.DB handle with the AIcity schema.
type DB struct {
	conn *sqlx.DB
	log  zerolog.Logger
}

// Open opens (creating if necessary) the SQLite database at path in WAL
// mode and runs migrations.
func Open(path string, log zerolog.Logger) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("persistence: open: %w", err)
	}
	db := &DB{conn: conn, log: log}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("persistence: migrate: %w", err)
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error { return db.conn.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS agents (
	id INTEGER PRIMARY KEY,
	display_name TEXT NOT NULL,
	role INTEGER NOT NULL,
	status INTEGER NOT NULL,
	balance INTEGER NOT NULL,
	age_days INTEGER NOT NULL,
	mood REAL NOT NULL,
	bribe_susceptibility REAL NOT NULL,
	comprehension_score INTEGER NOT NULL,
	assigned_teacher INTEGER,
	skills TEXT NOT NULL,
	home_lot_id INTEGER,
	tile_q INTEGER,
	tile_r INTEGER,
	cause_of_death TEXT,
	born_day INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS transactions (
	seq INTEGER PRIMARY KEY,
	day INTEGER NOT NULL,
	kind INTEGER NOT NULL,
	from_agent INTEGER NOT NULL,
	to_agent INTEGER NOT NULL,
	amount INTEGER NOT NULL,
	note TEXT
);

CREATE TABLE IF NOT EXISTS vault (
	id INTEGER PRIMARY KEY CHECK (id = 0),
	balance INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
	id INTEGER PRIMARY KEY,
	day INTEGER NOT NULL,
	kind TEXT NOT NULL,
	visibility INTEGER NOT NULL CHECK (visibility BETWEEN 0 AND 4),
	actor INTEGER,
	target INTEGER,
	summary TEXT NOT NULL,
	case_id INTEGER
);

CREATE TABLE IF NOT EXISTS police_cases (
	id INTEGER PRIMARY KEY,
	event_id INTEGER NOT NULL,
	suspect INTEGER,
	assigned_officer INTEGER,
	status INTEGER NOT NULL,
	opened_day INTEGER NOT NULL,
	last_action_day INTEGER NOT NULL,
	investigation_ticks INTEGER NOT NULL,
	verdict_note TEXT,
	guilty INTEGER
);

CREATE TABLE IF NOT EXISTS gangs (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	leader_id INTEGER NOT NULL,
	members TEXT NOT NULL,
	treasury INTEGER NOT NULL,
	formed_day INTEGER NOT NULL,
	status INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS shared_projects (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	progress REAL NOT NULL,
	contributors TEXT NOT NULL,
	started_day INTEGER NOT NULL,
	last_progress_day INTEGER NOT NULL,
	status INTEGER NOT NULL,
	asset_id INTEGER
);

CREATE TABLE IF NOT EXISTS city_assets (
	id INTEGER PRIMARY KEY,
	project_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	completed_day INTEGER NOT NULL,
	destroyed INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS stories (
	id INTEGER PRIMARY KEY,
	day INTEGER NOT NULL,
	kind TEXT NOT NULL,
	body TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS graduations (
	id INTEGER PRIMARY KEY,
	agent_id INTEGER NOT NULL,
	day INTEGER NOT NULL,
	from_role INTEGER NOT NULL,
	to_role INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS relationships (
	agent_a INTEGER NOT NULL,
	agent_b INTEGER NOT NULL,
	strength REAL NOT NULL,
	last_day INTEGER NOT NULL,
	PRIMARY KEY (agent_a, agent_b)
);

CREATE TABLE IF NOT EXISTS home_lots (
	id INTEGER PRIMARY KEY,
	agent_id INTEGER NOT NULL,
	tile_q INTEGER NOT NULL,
	tile_r INTEGER NOT NULL,
	claimed_day INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS world_tiles (
	q INTEGER NOT NULL,
	r INTEGER NOT NULL,
	tile_type INTEGER NOT NULL,
	built_asset_id INTEGER,
	PRIMARY KEY (q, r)
);

CREATE TABLE IF NOT EXISTS meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// bestEffortMigrations lists incremental ALTER TABLE statements applied
// after the base schema, with duplicate-column errors ignored, mirroring
// the teacher's own forward-migration style.
var bestEffortMigrations = []string{
	`ALTER TABLE agents ADD COLUMN cause_of_death TEXT`,
	`ALTER TABLE event_log ADD COLUMN evidence_trail TEXT`,
	`ALTER TABLE event_log ADD COLUMN witnesses TEXT`,
	`ALTER TABLE police_cases ADD COLUMN notes TEXT`,
	`ALTER TABLE police_cases ADD COLUMN evidence_refs TEXT`,
	`ALTER TABLE shared_projects ADD COLUMN kind TEXT`,
	`ALTER TABLE city_assets ADD COLUMN kind TEXT`,
	`ALTER TABLE transactions ADD COLUMN tax_withheld INTEGER NOT NULL DEFAULT 0`,
}

func (db *DB) migrate() error {
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("base schema: %w", err)
	}
	for _, m := range bestEffortMigrations {
		db.conn.Exec(m) // Ignore errors — column may already exist.
	}
	return nil
}

// HasWorldState reports whether a prior city state was persisted, the
// fresh-vs-resume branch point for cmd/aicity's startup.
func (db *DB) HasWorldState() bool {
	var count int
	if err := db.conn.Get(&count, `SELECT COUNT(*) FROM agents`); err != nil {
		return false
	}
	return count > 0
}

// SaveMeta stores a key/value pair (day counter, random seed, ...).
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(`INSERT INTO meta (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("persistence: save meta %s: %w", key, err)
	}
	return nil
}

// GetMeta retrieves a previously stored value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	if err := db.conn.Get(&value, `SELECT value FROM meta WHERE key = ?`, key); err != nil {
		return "", fmt.Errorf("persistence: get meta %s: %w", key, err)
	}
	return value, nil
}

type agentRow struct {
	ID                  uint64  `db:"id"`
	DisplayName         string  `db:"display_name"`
	Role                uint8   `db:"role"`
	Status              uint8   `db:"status"`
	Balance             int64   `db:"balance"`
	AgeDays             int     `db:"age_days"`
	Mood                float64 `db:"mood"`
	BribeSusceptibility float64 `db:"bribe_susceptibility"`
	ComprehensionScore  int     `db:"comprehension_score"`
	AssignedTeacher     *uint64 `db:"assigned_teacher"`
	Skills              string  `db:"skills"`
	HomeLotID           *uint64 `db:"home_lot_id"`
	TileQ               *int    `db:"tile_q"`
	TileR               *int    `db:"tile_r"`
	CauseOfDeath        *string `db:"cause_of_death"`
	BornDay             int     `db:"born_day"`
}

// SaveAgents replaces the agents table contents with the given population,
// mirroring the teacher's DELETE-then-bulk-INSERT idiom.
func (db *DB) SaveAgents(pop map[agents.ID]*agents.Agent) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return fmt.Errorf("persistence: save agents begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM agents`); err != nil {
		return fmt.Errorf("persistence: save agents delete: %w", err)
	}

	stmt, err := tx.Preparex(`INSERT INTO agents
		(id, display_name, role, status, balance, age_days, mood, bribe_susceptibility,
		 comprehension_score, assigned_teacher, skills, home_lot_id, tile_q, tile_r, cause_of_death, born_day)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("persistence: prepare agent insert: %w", err)
	}
	defer stmt.Close()

	for _, a := range pop {
		skills, err := json.Marshal(a.Skills)
		if err != nil {
			return fmt.Errorf("persistence: marshal skills for agent %d: %w", a.ID, err)
		}
		var teacher *uint64
		if a.AssignedTeacher != nil {
			v := uint64(*a.AssignedTeacher)
			teacher = &v
		}
		var cause *string
		if a.CauseOfDeath != "" {
			cause = &a.CauseOfDeath
		}
		if _, err := stmt.Exec(uint64(a.ID), a.DisplayName, uint8(a.Role), uint8(a.Status), a.Balance, a.AgeDays,
			a.Mood, a.BribeSusceptibility, a.ComprehensionScore, teacher, string(skills),
			a.HomeLotID, a.TileQ, a.TileR, cause, a.BornDay); err != nil {
			return fmt.Errorf("persistence: insert agent %d: %w", a.ID, err)
		}
	}

	return tx.Commit()
}

// LoadAgents reads the full population back into an ID-keyed map.
func (db *DB) LoadAgents() (map[agents.ID]*agents.Agent, error) {
	var rows []agentRow
	if err := db.conn.Select(&rows, `SELECT * FROM agents`); err != nil {
		return nil, fmt.Errorf("persistence: load agents: %w", err)
	}
	out := make(map[agents.ID]*agents.Agent, len(rows))
	for _, r := range rows {
		a := &agents.Agent{
			ID:                  agents.ID(r.ID),
			DisplayName:         r.DisplayName,
			Role:                agents.Role(r.Role),
			Status:              agents.Status(r.Status),
			Balance:             r.Balance,
			AgeDays:             r.AgeDays,
			Mood:                r.Mood,
			BribeSusceptibility: r.BribeSusceptibility,
			ComprehensionScore:  r.ComprehensionScore,
			HomeLotID:           r.HomeLotID,
			TileQ:               r.TileQ,
			TileR:               r.TileR,
			BornDay:             r.BornDay,
		}
		if r.AssignedTeacher != nil {
			id := agents.ID(*r.AssignedTeacher)
			a.AssignedTeacher = &id
		}
		if r.CauseOfDeath != nil {
			a.CauseOfDeath = *r.CauseOfDeath
		}
		_ = json.Unmarshal([]byte(r.Skills), &a.Skills)
		out[a.ID] = a
	}
	return out, nil
}

// SaveTransactions appends the given transactions to the log table
// (append-only: never deletes existing rows, unlike SaveAgents).
func (db *DB) SaveTransactions(txns []ledger.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	tx, err := db.conn.Beginx()
	if err != nil {
		return fmt.Errorf("persistence: save transactions begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR IGNORE INTO transactions (seq, day, kind, from_agent, to_agent, amount, note, tax_withheld) VALUES (?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("persistence: prepare transaction insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range txns {
		if _, err := stmt.Exec(t.Seq, t.Day, uint8(t.Kind), uint64(t.From), uint64(t.To), t.Amount, t.Note, t.TaxWithheld); err != nil {
			return fmt.Errorf("persistence: insert transaction %d: %w", t.Seq, err)
		}
	}
	return tx.Commit()
}

// LoadTransactions returns every persisted transaction in sequence order,
// used by the resume-replay path.
func (db *DB) LoadTransactions() ([]ledger.Transaction, error) {
	type row struct {
		Seq         uint64 `db:"seq"`
		Day         int    `db:"day"`
		Kind        uint8  `db:"kind"`
		From        uint64 `db:"from_agent"`
		To          uint64 `db:"to_agent"`
		Amount      int64  `db:"amount"`
		Note        string `db:"note"`
		TaxWithheld int64  `db:"tax_withheld"`
	}
	var rows []row
	if err := db.conn.Select(&rows, `SELECT * FROM transactions ORDER BY seq ASC`); err != nil {
		return nil, fmt.Errorf("persistence: load transactions: %w", err)
	}
	out := make([]ledger.Transaction, len(rows))
	for i, r := range rows {
		out[i] = ledger.Transaction{Seq: r.Seq, Day: r.Day, Kind: ledger.Kind(r.Kind), From: ledger.AgentID(r.From), To: ledger.AgentID(r.To), Amount: r.Amount, Note: r.Note, TaxWithheld: r.TaxWithheld}
	}
	return out, nil
}

// SaveEvents appends the given events to the event log table, along with
// each event's evidence trail and accumulated witness set so a resumed
// city sees exactly the same visibility state as one continuous run.
func (db *DB) SaveEvents(events []eventlog.Event) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.conn.Beginx()
	if err != nil {
		return fmt.Errorf("persistence: save events begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO event_log (id, day, kind, visibility, actor, target, summary, case_id, evidence_trail, witnesses) VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("persistence: prepare event insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		evidence, err := json.Marshal(e.EvidenceTrail)
		if err != nil {
			return fmt.Errorf("persistence: marshal event %d evidence: %w", e.ID, err)
		}
		witnesses, err := json.Marshal(e.Witnesses())
		if err != nil {
			return fmt.Errorf("persistence: marshal event %d witnesses: %w", e.ID, err)
		}
		if _, err := stmt.Exec(e.ID, e.Day, string(e.Kind), uint8(e.Visibility), uint64(e.Actor), uint64(e.Target), e.Summary, e.CaseID, string(evidence), string(witnesses)); err != nil {
			return fmt.Errorf("persistence: insert event %d: %w", e.ID, err)
		}
	}
	return tx.Commit()
}

// LoadEvents reads every persisted event back, together with its witness
// set, for the resume path to reinsert via eventlog.Log.Restore.
func (db *DB) LoadEvents() ([]*eventlog.Event, [][]eventlog.AgentID, error) {
	type row struct {
		ID            uint64  `db:"id"`
		Day           int     `db:"day"`
		Kind          string  `db:"kind"`
		Visibility    uint8   `db:"visibility"`
		Actor         uint64  `db:"actor"`
		Target        uint64  `db:"target"`
		Summary       string  `db:"summary"`
		CaseID        *uint64 `db:"case_id"`
		EvidenceTrail *string `db:"evidence_trail"`
		Witnesses     *string `db:"witnesses"`
	}
	var rows []row
	if err := db.conn.Select(&rows, `SELECT * FROM event_log ORDER BY id ASC`); err != nil {
		return nil, nil, fmt.Errorf("persistence: load events: %w", err)
	}
	events := make([]*eventlog.Event, len(rows))
	witnessSets := make([][]eventlog.AgentID, len(rows))
	for i, r := range rows {
		e := &eventlog.Event{
			ID:         r.ID,
			Day:        r.Day,
			Kind:       eventlog.Kind(r.Kind),
			Visibility: eventlog.Visibility(r.Visibility),
			Actor:      eventlog.AgentID(r.Actor),
			Target:     eventlog.AgentID(r.Target),
			Summary:    r.Summary,
			CaseID:     r.CaseID,
		}
		if r.EvidenceTrail != nil {
			_ = json.Unmarshal([]byte(*r.EvidenceTrail), &e.EvidenceTrail)
		}
		var witnesses []eventlog.AgentID
		if r.Witnesses != nil {
			_ = json.Unmarshal([]byte(*r.Witnesses), &witnesses)
		}
		events[i] = e
		witnessSets[i] = witnesses
	}
	return events, witnessSets, nil
}

// SaveCases replaces the police_cases table with the given case set.
func (db *DB) SaveCases(all []*cases.Case) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return fmt.Errorf("persistence: save cases begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM police_cases`); err != nil {
		return fmt.Errorf("persistence: save cases delete: %w", err)
	}
	stmt, err := tx.Preparex(`INSERT INTO police_cases
		(id, event_id, suspect, assigned_officer, status, opened_day, last_action_day, investigation_ticks, verdict_note, guilty, notes, evidence_refs)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("persistence: prepare case insert: %w", err)
	}
	defer stmt.Close()
	for _, c := range all {
		var guilty *bool
		if c.Guilty != nil {
			g := *c.Guilty
			guilty = &g
		}
		notes, err := json.Marshal(c.Notes)
		if err != nil {
			return fmt.Errorf("persistence: marshal case %d notes: %w", c.ID, err)
		}
		refs, err := json.Marshal(c.EvidenceRefs)
		if err != nil {
			return fmt.Errorf("persistence: marshal case %d evidence refs: %w", c.ID, err)
		}
		if _, err := stmt.Exec(c.ID, c.EventID, uint64(c.Suspect), uint64(c.AssignedOffice), uint8(c.Status), c.OpenedDay, c.LastActionDay, c.InvestigationTicks, c.VerdictNote, guilty, string(notes), string(refs)); err != nil {
			return fmt.Errorf("persistence: insert case %d: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// LoadCases reads every persisted police case back, for the resume path to
// reinsert via cases.Engine.Restore.
func (db *DB) LoadCases() ([]*cases.Case, error) {
	type row struct {
		ID                 uint64  `db:"id"`
		EventID            uint64  `db:"event_id"`
		Suspect            uint64  `db:"suspect"`
		AssignedOffice     uint64  `db:"assigned_officer"`
		Status             uint8   `db:"status"`
		OpenedDay          int     `db:"opened_day"`
		LastActionDay      int     `db:"last_action_day"`
		InvestigationTicks int     `db:"investigation_ticks"`
		VerdictNote        string  `db:"verdict_note"`
		Guilty             *bool   `db:"guilty"`
		Notes              *string `db:"notes"`
		EvidenceRefs       *string `db:"evidence_refs"`
	}
	var rows []row
	if err := db.conn.Select(&rows, `SELECT * FROM police_cases`); err != nil {
		return nil, fmt.Errorf("persistence: load cases: %w", err)
	}
	out := make([]*cases.Case, len(rows))
	for i, r := range rows {
		c := &cases.Case{
			ID:                 r.ID,
			EventID:            r.EventID,
			Suspect:            cases.AgentID(r.Suspect),
			AssignedOffice:     cases.AgentID(r.AssignedOffice),
			Status:             cases.Status(r.Status),
			OpenedDay:          r.OpenedDay,
			LastActionDay:      r.LastActionDay,
			InvestigationTicks: r.InvestigationTicks,
			VerdictNote:        r.VerdictNote,
			Guilty:             r.Guilty,
		}
		if r.Notes != nil {
			_ = json.Unmarshal([]byte(*r.Notes), &c.Notes)
		}
		if r.EvidenceRefs != nil {
			_ = json.Unmarshal([]byte(*r.EvidenceRefs), &c.EvidenceRefs)
		}
		out[i] = c
	}
	return out, nil
}

// SaveGangs replaces the gangs table with the given gang set, marshaling
// membership into a JSON array column.
func (db *DB) SaveGangs(all []*gangs.Gang) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return fmt.Errorf("persistence: save gangs begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM gangs`); err != nil {
		return fmt.Errorf("persistence: save gangs delete: %w", err)
	}
	stmt, err := tx.Preparex(`INSERT INTO gangs (id, name, leader_id, members, treasury, formed_day, status) VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("persistence: prepare gang insert: %w", err)
	}
	defer stmt.Close()
	for _, g := range all {
		members := make([]uint64, 0, len(g.Members))
		for id := range g.Members {
			members = append(members, uint64(id))
		}
		data, err := json.Marshal(members)
		if err != nil {
			return fmt.Errorf("persistence: marshal gang %d members: %w", g.ID, err)
		}
		if _, err := stmt.Exec(g.ID, g.Name, uint64(g.LeaderID), string(data), g.Treasury, g.FormedDay, uint8(g.Status)); err != nil {
			return fmt.Errorf("persistence: insert gang %d: %w", g.ID, err)
		}
	}
	return tx.Commit()
}

// LoadGangs reads every persisted gang back, for the resume path to
// reinsert via gangs.Registry.Restore.
func (db *DB) LoadGangs() ([]*gangs.Gang, error) {
	type row struct {
		ID        uint64 `db:"id"`
		Name      string `db:"name"`
		LeaderID  uint64 `db:"leader_id"`
		Members   string `db:"members"`
		Treasury  int64  `db:"treasury"`
		FormedDay int    `db:"formed_day"`
		Status    uint8  `db:"status"`
	}
	var rows []row
	if err := db.conn.Select(&rows, `SELECT * FROM gangs`); err != nil {
		return nil, fmt.Errorf("persistence: load gangs: %w", err)
	}
	out := make([]*gangs.Gang, len(rows))
	for i, r := range rows {
		var memberIDs []uint64
		_ = json.Unmarshal([]byte(r.Members), &memberIDs)
		members := make(map[gangs.AgentID]bool, len(memberIDs))
		for _, id := range memberIDs {
			members[gangs.AgentID(id)] = true
		}
		out[i] = &gangs.Gang{
			ID:        r.ID,
			Name:      r.Name,
			LeaderID:  gangs.AgentID(r.LeaderID),
			Members:   members,
			Treasury:  r.Treasury,
			FormedDay: r.FormedDay,
			Status:    gangs.Status(r.Status),
		}
	}
	return out, nil
}

// SaveProjects replaces the shared_projects table with the given set.
func (db *DB) SaveProjects(all []*projects.Project) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return fmt.Errorf("persistence: save projects begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM shared_projects`); err != nil {
		return fmt.Errorf("persistence: save projects delete: %w", err)
	}
	stmt, err := tx.Preparex(`INSERT INTO shared_projects (id, name, progress, contributors, started_day, last_progress_day, status, asset_id, kind) VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("persistence: prepare project insert: %w", err)
	}
	defer stmt.Close()
	for _, p := range all {
		data, err := json.Marshal(p.Contributors)
		if err != nil {
			return fmt.Errorf("persistence: marshal project %d contributors: %w", p.ID, err)
		}
		if _, err := stmt.Exec(p.ID, p.Name, p.Progress, string(data), p.StartedDay, p.LastProgress, uint8(p.Status), p.AssetID, string(p.Kind)); err != nil {
			return fmt.Errorf("persistence: insert project %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// LoadProjects reads every persisted project back, for the resume path to
// reinsert via projects.Registry.Restore.
func (db *DB) LoadProjects() ([]*projects.Project, error) {
	type row struct {
		ID               uint64  `db:"id"`
		Name             string  `db:"name"`
		Progress         float64 `db:"progress"`
		Contributors     string  `db:"contributors"`
		StartedDay       int     `db:"started_day"`
		LastProgressDay  int     `db:"last_progress_day"`
		Status           uint8   `db:"status"`
		AssetID          *uint64 `db:"asset_id"`
		Kind             *string `db:"kind"`
	}
	var rows []row
	if err := db.conn.Select(&rows, `SELECT * FROM shared_projects`); err != nil {
		return nil, fmt.Errorf("persistence: load projects: %w", err)
	}
	out := make([]*projects.Project, len(rows))
	for i, r := range rows {
		contributors := make(map[projects.AgentID]int)
		_ = json.Unmarshal([]byte(r.Contributors), &contributors)
		p := &projects.Project{
			ID:           r.ID,
			Name:         r.Name,
			Progress:     r.Progress,
			Contributors: contributors,
			StartedDay:   r.StartedDay,
			LastProgress: r.LastProgressDay,
			Status:       projects.Status(r.Status),
			AssetID:      r.AssetID,
		}
		if r.Kind != nil {
			p.Kind = projects.AssetKind(*r.Kind)
		}
		out[i] = p
	}
	return out, nil
}

// SaveAssets replaces the city_assets table with the given standing asset
// set.
func (db *DB) SaveAssets(all []*projects.Asset) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return fmt.Errorf("persistence: save assets begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.Exec(`DELETE FROM city_assets`); err != nil {
		return fmt.Errorf("persistence: save assets delete: %w", err)
	}
	stmt, err := tx.Preparex(`INSERT INTO city_assets (id, project_id, name, completed_day, destroyed, kind) VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("persistence: prepare asset insert: %w", err)
	}
	defer stmt.Close()
	for _, a := range all {
		if _, err := stmt.Exec(a.ID, a.ProjectID, a.Name, a.CompletedDay, a.Destroyed, string(a.Kind)); err != nil {
			return fmt.Errorf("persistence: insert asset %d: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

// LoadAssets reads every persisted standing asset back, for the resume path
// to reinsert via projects.Registry.RestoreAsset.
func (db *DB) LoadAssets() ([]*projects.Asset, error) {
	type row struct {
		ID           uint64  `db:"id"`
		ProjectID    uint64  `db:"project_id"`
		Name         string  `db:"name"`
		CompletedDay int     `db:"completed_day"`
		Destroyed    bool    `db:"destroyed"`
		Kind         *string `db:"kind"`
	}
	var rows []row
	if err := db.conn.Select(&rows, `SELECT * FROM city_assets`); err != nil {
		return nil, fmt.Errorf("persistence: load assets: %w", err)
	}
	out := make([]*projects.Asset, len(rows))
	for i, r := range rows {
		a := &projects.Asset{ID: r.ID, ProjectID: r.ProjectID, Name: r.Name, CompletedDay: r.CompletedDay, Destroyed: r.Destroyed}
		if r.Kind != nil {
			a.Kind = projects.AssetKind(*r.Kind)
		}
		out[i] = a
	}
	return out, nil
}
