package tools

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nocoforge/nocobase-mcp/internal/builder"
	"github.com/nocoforge/nocobase-mcp/internal/nbclient"
)

// createTableRE extracts table names from CREATE TABLE statements so
// the SQL tool can bolt on the audit columns NocoBase expects.
var createTableRE = regexp.MustCompile(`(?i)CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?(\w+)`)

func extractCreatedTables(sql string) []string {
	var tables []string
	for _, m := range createTableRE.FindAllStringSubmatch(sql, -1) {
		tables = append(tables, m[1])
	}
	return tables
}

// systemColumnsSQL guarantees the audit columns exist at the DB level,
// regardless of what the caller's DDL included.
func systemColumnsSQL(table string) string {
	return fmt.Sprintf(`
		ALTER TABLE %q ADD COLUMN IF NOT EXISTS "createdAt" TIMESTAMPTZ DEFAULT NOW();
		ALTER TABLE %q ADD COLUMN IF NOT EXISTS "updatedAt" TIMESTAMPTZ DEFAULT NOW();
		ALTER TABLE %q ADD COLUMN IF NOT EXISTS "createdById" BIGINT;
		ALTER TABLE %q ADD COLUMN IF NOT EXISTS "updatedById" BIGINT;
	`, table, table, table, table)
}

func ensureSystemColumns(ctx context.Context, dbURL, table string) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)
	if _, err := conn.Exec(ctx, systemColumnsSQL(table)); err != nil {
		return fmt.Errorf("alter %s: %w", table, err)
	}
	return nil
}

// ExecuteSQLTool runs raw SQL against the NocoBase database. Bulk DDL
// is far faster this way than through API calls.
type ExecuteSQLTool struct{ deps Deps }

func NewExecuteSQLTool(deps Deps) *ExecuteSQLTool { return &ExecuteSQLTool{deps: deps} }

func (t *ExecuteSQLTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_execute_sql",
		mcp.WithDescription(
			"Execute SQL against the NocoBase PostgreSQL database. "+
				"Best for bulk DDL (CREATE TABLE, ALTER TABLE). "+
				"When CREATE TABLE statements are detected, the audit columns "+
				"createdAt/updatedAt/createdById/updatedById are added to each "+
				"new table automatically — do not include them in your DDL.",
		),
		mcp.WithString("sql",
			mcp.Required(),
			mcp.Description("SQL statement(s) to execute, semicolon separated."),
		),
	)
}

func (t *ExecuteSQLTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sql := req.GetString("sql", "")
	if strings.TrimSpace(sql) == "" {
		return mcp.NewToolResultError("'sql' is required"), nil
	}

	conn, err := pgx.Connect(ctx, t.deps.DatabaseURL)
	if err != nil {
		return apiErrorResult("database connection failed", err), nil
	}
	defer conn.Close(ctx)

	result, qerr := runSQL(ctx, conn, sql)
	if qerr != nil {
		return apiErrorResult("sql failed", qerr), nil
	}

	if tables := extractCreatedTables(sql); len(tables) > 0 {
		var failures []string
		for _, tbl := range tables {
			if _, err := conn.Exec(ctx, systemColumnsSQL(tbl)); err != nil {
				failures = append(failures, fmt.Sprintf("%s: %v", tbl, err))
			}
		}
		if len(failures) > 0 {
			result += "\n[system-cols] " + strings.Join(failures, "; ")
		} else {
			result += fmt.Sprintf("\n[system-cols] added to %d tables", len(tables))
		}
	}
	return mcp.NewToolResultText(result), nil
}

// runSQL executes the statement and renders rows for queries or an
// affected-row count for commands. Non-query statements go through Exec,
// which accepts semicolon-separated batches.
func runSQL(ctx context.Context, conn *pgx.Conn, sql string) (string, error) {
	if !returnsRows(sql) {
		tag, err := conn.Exec(ctx, sql)
		if err != nil {
			return "", err
		}
		if tag.RowsAffected() > 0 {
			return fmt.Sprintf("OK (%d rows affected)", tag.RowsAffected()), nil
		}
		return "OK", nil
	}

	rows, err := conn.Query(ctx, sql)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = f.Name
	}

	var lines []string
	if len(cols) > 0 {
		lines = append(lines, strings.Join(cols, "\t"))
	}
	count := 0
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return "", err
		}
		cells := make([]string, len(values))
		for i, v := range values {
			cells[i] = fmt.Sprintf("%v", v)
		}
		lines = append(lines, strings.Join(cells, "\t"))
		count++
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if count == 0 {
		return "OK (0 rows)", nil
	}
	return strings.Join(lines, "\n"), nil
}

// returnsRows reports whether the statement produces a result set.
func returnsRows(sql string) bool {
	head := strings.ToUpper(strings.TrimSpace(sql))
	for _, kw := range []string{"SELECT", "WITH", "SHOW", "EXPLAIN", "VALUES"} {
		if strings.HasPrefix(head, kw) {
			return true
		}
	}
	return false
}

// RegisterCollectionTool registers an existing DB table in NocoBase
// metadata.
type RegisterCollectionTool struct{ deps Deps }

func NewRegisterCollectionTool(deps Deps) *RegisterCollectionTool {
	return &RegisterCollectionTool{deps: deps}
}

func (t *RegisterCollectionTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_register_collection",
		mcp.WithDescription(
			"Register an existing database table as a NocoBase collection. "+
				"The table must already exist (created via nb_execute_sql); "+
				"this records it in NocoBase metadata with autoCreate=false.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Collection name — must match the DB table name exactly."),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Display title in the NocoBase UI."),
		),
		mcp.WithString("tree",
			mcp.Description("Tree type for hierarchical collections. Use \"adjacency-list\" for parent-child trees."),
		),
	)
}

func (t *RegisterCollectionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	title := req.GetString("title", "")
	if name == "" || title == "" {
		return mcp.NewToolResultError("'name' and 'title' are required"), nil
	}

	payload := map[string]any{"name": name, "title": title, "autoCreate": false, "timestamps": false}
	if tree := req.GetString("tree", ""); tree != "" {
		payload["tree"] = tree
	}

	err := t.deps.Client.CreateCollection(ctx, payload)
	if errors.Is(err, nbclient.ErrValidation) {
		// Re-registering is a no-op, not a failure.
		return mcp.NewToolResultText(fmt.Sprintf("Collection '%s' already registered (skipped)", name)), nil
	}
	if err != nil {
		return apiErrorResult("register collection", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Registered collection '%s' (title: %s)", name, title)), nil
}

// SyncFieldsTool pulls DB columns into NocoBase field metadata and
// fills in the system fields.
type SyncFieldsTool struct{ deps Deps }

func NewSyncFieldsTool(deps Deps) *SyncFieldsTool { return &SyncFieldsTool{deps: deps} }

func (t *SyncFieldsTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_sync_fields",
		mcp.WithDescription(
			"Sync database columns into NocoBase field metadata. "+
				"Call after creating columns via SQL. With a collection given, "+
				"also ensures audit columns exist and creates the system fields "+
				"(createdAt, updatedAt, createdBy, updatedBy) via the API.",
		),
		mcp.WithString("collection",
			mcp.Description("Collection to prepare system fields for. Omit for a global sync only."),
		),
	)
}

func (t *SyncFieldsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collection := req.GetString("collection", "")
	var results []string

	if collection != "" {
		if err := ensureSystemColumns(ctx, t.deps.DatabaseURL, collection); err != nil {
			results = append(results, fmt.Sprintf("System columns: %v", err))
		}
	}

	if err := t.deps.Client.SyncFields(ctx); err != nil {
		results = append(results, fmt.Sprintf("Sync error: %v", err))
	} else {
		results = append(results, "Fields synced successfully")
	}

	if collection != "" {
		created, skipped, err := createSystemFields(ctx, t.deps.Client, collection)
		if err != nil {
			results = append(results, fmt.Sprintf("System fields error: %v", err))
		} else {
			results = append(results, fmt.Sprintf("System fields: %d created, %d skipped", created, skipped))
		}

		if fields, err := t.deps.Client.ListFields(ctx, collection); err == nil {
			results = append(results, fmt.Sprintf("Collection '%s' now has %d fields", collection, len(fields)))
		}
	}
	return mcp.NewToolResultText(strings.Join(results, "\n")), nil
}

// createSystemFields creates the audit field metadata, skipping any
// that already exist by name or interface.
func createSystemFields(ctx context.Context, client *nbclient.Client, collection string) (created, skipped int, err error) {
	fields, err := client.ListFields(ctx, collection)
	if err != nil {
		return 0, 0, err
	}
	existingNames := map[string]bool{}
	existingInterfaces := map[string]bool{}
	for _, f := range fields {
		if n, _ := f["name"].(string); n != "" {
			existingNames[n] = true
		}
		if i, _ := f["interface"].(string); i != "" {
			existingInterfaces[i] = true
		}
	}
	for _, payload := range builder.SystemFieldPayloads() {
		name := payload["name"].(string)
		iface := payload["interface"].(string)
		if existingNames[name] || existingInterfaces[iface] {
			skipped++
			continue
		}
		if err := client.CreateField(ctx, collection, payload); err != nil {
			skipped++
			continue
		}
		created++
	}
	return created, skipped, nil
}

// RelationSpec mirrors the relation entries accepted by setup and the
// relation tool.
type RelationSpec struct {
	Field      string `json:"field"`
	Type       string `json:"type"`
	Target     string `json:"target"`
	ForeignKey string `json:"foreign_key"`
	Label      string `json:"label"`
	Title      string `json:"title"`
	OtherKey   string `json:"other_key"`
	Through    string `json:"through"`
}

func relationPayload(rel RelationSpec) map[string]any {
	nbType := builder.RelationFieldType(rel.Type)
	label := rel.Label
	if label == "" {
		label = "id"
	}
	title := rel.Title
	if title == "" {
		title = builder.TitleFromName(rel.Field)
	}
	payload := map[string]any{
		"name": rel.Field, "type": nbType, "interface": rel.Type,
		"target": rel.Target, "foreignKey": rel.ForeignKey,
		"uiSchema": map[string]any{
			"x-component": "AssociationField",
			"x-component-props": map[string]any{
				"fieldNames": map[string]any{"label": label, "value": "id"},
			},
			"title": title,
		},
	}
	if nbType == "belongsToMany" {
		if rel.OtherKey != "" {
			payload["otherKey"] = rel.OtherKey
		}
		if rel.Through != "" {
			payload["through"] = rel.Through
		}
	}
	return payload
}

// FieldUpgradeSpec is one entry of setup's fields_json.
type FieldUpgradeSpec struct {
	Interface string `json:"interface"`
	Enum      []any  `json:"enum"`
	Title     string `json:"title"`
	Precision *int   `json:"precision"`
}

// SetupCollectionTool registers, syncs, upgrades, and relates a
// collection in one call.
type SetupCollectionTool struct{ deps Deps }

func NewSetupCollectionTool(deps Deps) *SetupCollectionTool { return &SetupCollectionTool{deps: deps} }

func (t *SetupCollectionTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_setup_collection",
		mcp.WithDescription(
			"Register a collection, sync fields, upgrade interfaces, and create "+
				"relations in a single call — the batch form of nb_register_collection, "+
				"nb_sync_fields, nb_upgrade_field, and nb_create_relation.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Collection name (must match the DB table name)."),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Display title in the NocoBase UI."),
		),
		mcp.WithString("fields_json",
			mcp.Description(`JSON object mapping field names to upgrade configs: {"status":{"interface":"select","enum":[{"value":"active","label":"Active"}]},"budget":{"interface":"number","precision":2}}. Fields not listed keep the default input interface.`),
		),
		mcp.WithString("relations_json",
			mcp.Description(`JSON array of relations: [{"field":"project","type":"m2o","target":"nb_pm_projects","foreign_key":"project_id","label":"name"}]. Types: m2o, o2m, m2m, o2o.`),
		),
		mcp.WithString("tree",
			mcp.Description("Tree type for hierarchical collections (\"adjacency-list\")."),
		),
	)
}

func (t *SetupCollectionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	title := req.GetString("title", "")
	if name == "" || title == "" {
		return mcp.NewToolResultError("'name' and 'title' are required"), nil
	}

	var fieldConfigs map[string]FieldUpgradeSpec
	if raw := req.GetString("fields_json", ""); raw != "" {
		if msg := decodeJSONArg("fields_json", raw, &fieldConfigs); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
	}
	var relations []RelationSpec
	if raw := req.GetString("relations_json", ""); raw != "" {
		if msg := decodeJSONArg("relations_json", raw, &relations); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}
	}

	client := t.deps.Client
	var results []string

	// Register.
	payload := map[string]any{"name": name, "title": title, "autoCreate": false, "timestamps": false}
	if tree := req.GetString("tree", ""); tree != "" {
		payload["tree"] = tree
	}
	switch err := client.CreateCollection(ctx, payload); {
	case err == nil:
		results = append(results, "[register] OK")
	case errors.Is(err, nbclient.ErrValidation):
		results = append(results, "[register] already exists")
	default:
		results = append(results, fmt.Sprintf("[register] ERROR: %v", err))
		return mcp.NewToolResultText(name + ": " + strings.Join(results, " | ")), nil
	}

	// System columns + sync + system fields.
	if err := ensureSystemColumns(ctx, t.deps.DatabaseURL, name); err != nil {
		results = append(results, fmt.Sprintf("[system-cols] %v", err))
	}
	if err := client.SyncFields(ctx); err != nil {
		t.deps.Log.Warn().Err(err).Msg("field sync failed")
	}
	sysCreated, _, _ := createSystemFields(ctx, client, name)

	fields, err := client.ListFields(ctx, name)
	if err != nil {
		results = append(results, fmt.Sprintf("[sync] ERROR: %v", err))
	} else {
		results = append(results, fmt.Sprintf("[sync] %d fields (%d system fields created)", len(fields), sysCreated))
	}

	// Interface upgrades.
	if len(fieldConfigs) > 0 {
		existing := map[string]map[string]any{}
		for _, f := range fields {
			if n, _ := f["name"].(string); n != "" {
				existing[n] = f
			}
		}
		upgraded, skipped, failed := 0, 0, 0

		names := make([]string, 0, len(fieldConfigs))
		for fname := range fieldConfigs {
			names = append(names, fname)
		}
		sort.Strings(names)

		for _, fname := range names {
			cfg := fieldConfigs[fname]
			ef, ok := existing[fname]
			if !ok {
				results = append(results, fmt.Sprintf("[upgrade] %s: not found (skipped)", fname))
				skipped++
				continue
			}
			if iface, _ := ef["interface"].(string); iface == cfg.Interface {
				skipped++
				continue
			}
			existingTitle := ""
			if schema, ok := ef["uiSchema"].(map[string]any); ok {
				existingTitle, _ = schema["title"].(string)
			}
			upd := builder.FieldUpdatePayload(fname, cfg.Interface, builder.FieldUpgradeOptions{
				Enum: cfg.Enum, Title: cfg.Title, Precision: cfg.Precision,
			}, existingTitle)
			if upd == nil {
				skipped++
				continue
			}
			key, _ := ef["key"].(string)
			if err := client.UpdateField(ctx, key, upd); err != nil {
				failed++
				continue
			}
			upgraded++
		}
		results = append(results, fmt.Sprintf("[upgrade] %d upgraded, %d skipped, %d failed", upgraded, skipped, failed))
	}

	// Relations.
	if len(relations) > 0 {
		current, _ := client.ListFields(ctx, name)
		existingNames := map[string]bool{}
		for _, f := range current {
			if n, _ := f["name"].(string); n != "" {
				existingNames[n] = true
			}
		}
		relOK, relSkip := 0, 0
		for _, rel := range relations {
			if existingNames[rel.Field] {
				relSkip++
				continue
			}
			if err := client.CreateField(ctx, name, relationPayload(rel)); err != nil {
				relSkip++
				continue
			}
			relOK++
		}
		results = append(results, fmt.Sprintf("[relations] %d created, %d skipped", relOK, relSkip))
	}

	return mcp.NewToolResultText(name + ": " + strings.Join(results, " | ")), nil
}

// ListCollectionsTool lists registered collections.
type ListCollectionsTool struct{ deps Deps }

func NewListCollectionsTool(deps Deps) *ListCollectionsTool { return &ListCollectionsTool{deps: deps} }

func (t *ListCollectionsTool) Definition() mcp.Tool {
	return mcp.NewTool("nb_list_collections",
		mcp.WithDescription("List all registered NocoBase collections with name, title, and category."),
		mcp.WithString("filter",
			mcp.Description("Name prefix to filter by, e.g. \"nb_pm_\"."),
		),
	)
}

func (t *ListCollectionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	collections, err := t.deps.Client.ListCollections(ctx)
	if err != nil {
		return apiErrorResult("list collections", err), nil
	}

	prefix := req.GetString("filter", "")
	var filtered []map[string]any
	for _, c := range collections {
		name, _ := c["name"].(string)
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		filtered = append(filtered, c)
	}
	sort.Slice(filtered, func(i, j int) bool {
		ni, _ := filtered[i]["name"].(string)
		nj, _ := filtered[j]["name"].(string)
		return ni < nj
	})

	if len(filtered) == 0 {
		msg := "No collections found"
		if prefix != "" {
			msg += fmt.Sprintf(" matching '%s'", prefix)
		}
		return mcp.NewToolResultText(msg), nil
	}

	lines := []string{fmt.Sprintf("%-35s %-25s %s", "Name", "Title", "Category")}
	for _, c := range filtered {
		name, _ := c["name"].(string)
		title, _ := c["title"].(string)
		category := fmt.Sprintf("%v", c["category"])
		if c["category"] == nil {
			category = ""
		}
		lines = append(lines, fmt.Sprintf("%-35s %-25s %s", name, title, category))
	}
	lines = append(lines, fmt.Sprintf("\nTotal: %d collections", len(filtered)))
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}
