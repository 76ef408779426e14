package index

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// AddTagGroup inserts a new TagGroup.
func (idx *Index) AddTagGroup(ctx context.Context, g TagGroup) (int64, error) {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(ctx, `INSERT INTO tag_group (name, color, created_at) VALUES (?, ?, ?)`,
		g.Name, g.Color, g.CreatedAt.Format(timeLayout))
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, wrapSQLErr(err)
	}

	if err := refreshTagGroupVTab(ctx, tx, id, g.Name); err != nil {
		return 0, err
	}

	return id, tx.Commit()
}

// GetTagGroupByID returns (group, true, nil) if present.
func (idx *Index) GetTagGroupByID(ctx context.Context, id int64) (TagGroup, bool, error) {
	row := idx.db.Reader().QueryRowContext(ctx, tagGroupSelect+` WHERE group_id = ?`, id)
	return scanTagGroup(row)
}

// SearchTagGroups finds tag groups by name: exact-match and short substrings
// stay on the base table, longer substring queries route through
// tag_groups_vtab ranked by relevance, mirroring SearchTags. Used by tag
// re-materialization (§4.8 step 2) with exact=true.
func (idx *Index) SearchTagGroups(ctx context.Context, query string, exact bool, page PageParams) (Page[TagGroup], error) {
	trimmed := strings.TrimSpace(query)

	if !exact && len(trimmed) >= 3 {
		return searchTagGroupsFTS(ctx, idx, trimmed, page)
	}

	clause := `name LIKE '%' || ? || '%' COLLATE NOCASE`
	arg := query
	if exact {
		clause = `name = ? COLLATE NOCASE`
	}

	var total int64
	countSQL := `SELECT COUNT(*) FROM tag_group WHERE ` + clause
	if err := idx.db.Reader().QueryRowContext(ctx, countSQL, arg).Scan(&total); err != nil {
		return Page[TagGroup]{}, wrapSQLErr(err)
	}

	rows, err := idx.db.Reader().QueryContext(ctx,
		tagGroupSelect+` WHERE `+clause+` ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		arg, page.PageSize, page.Offset)
	if err != nil {
		return Page[TagGroup]{}, wrapSQLErr(err)
	}
	defer rows.Close()

	groups, err := scanTagGroups(rows)
	if err != nil {
		return Page[TagGroup]{}, err
	}

	return Page[TagGroup]{
		PageSize:      page.PageSize,
		TotalRowCount: total,
		PageNumber:    page.Offset,
		Data:          groups,
	}, nil
}

func searchTagGroupsFTS(ctx context.Context, idx *Index, trimmed string, page PageParams) (Page[TagGroup], error) {
	matchExpr := buildMatchExpr(trimmed, "")

	var total int64
	if err := idx.db.Reader().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tag_groups_vtab WHERE tag_groups_vtab MATCH ?", matchExpr).Scan(&total); err != nil {
		return Page[TagGroup]{}, wrapSQLErr(err)
	}

	rows, err := idx.db.Reader().QueryContext(ctx,
		tagGroupSelect+` JOIN tag_groups_vtab v ON v.rowid = tag_group.group_id
			WHERE tag_groups_vtab MATCH ? ORDER BY rank LIMIT ? OFFSET ?`,
		matchExpr, page.PageSize, page.Offset)
	if err != nil {
		return Page[TagGroup]{}, wrapSQLErr(err)
	}
	defer rows.Close()

	groups, err := scanTagGroups(rows)
	if err != nil {
		return Page[TagGroup]{}, err
	}

	return Page[TagGroup]{
		PageSize:      page.PageSize,
		TotalRowCount: total,
		PageNumber:    page.Offset,
		Data:          groups,
	}, nil
}

func scanTagGroups(rows *sql.Rows) ([]TagGroup, error) {
	var groups []TagGroup
	for rows.Next() {
		g, ok, err := scanTagGroup(rows)
		if err != nil {
			return nil, err
		}
		if ok {
			groups = append(groups, g)
		}
	}
	return groups, wrapSQLErr(rows.Err())
}

const tagGroupSelect = `SELECT tag_group.group_id, tag_group.name, tag_group.color, tag_group.created_at FROM tag_group`

func scanTagGroup(row rowScanner) (TagGroup, bool, error) {
	var g TagGroup
	var createdAt string
	err := row.Scan(&g.ID, &g.Name, &g.Color, &createdAt)
	if err != nil {
		if isNoRows(err) {
			return TagGroup{}, false, nil
		}
		return TagGroup{}, false, wrapSQLErr(err)
	}
	g.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	return g, true, nil
}
