package index

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ftsColumns are the searchable fields mirrored into posts_vtab.
var ftsColumns = []string{
	"title", "description", "source", "tags", "original_name",
	"original_directory", "document_title", "document_author",
}

// buildMatchExpr turns free text into an FTS5 MATCH expression: split on OR,
// trim `,"()`, multi-word clauses become NEAR(term,1000), single-word
// clauses become an exact phrase, and clauses are joined with OR. When scope
// is non-empty every clause is additionally restricted to it (a `{col1
// col2}` column-set prefix); pass "" for single-column tables.
func buildMatchExpr(text, scope string) string {
	clauses := strings.Split(text, "OR")
	scoped := make([]string, 0, len(clauses))

	for _, clause := range clauses {
		clause = strings.Trim(clause, ` ,"()`)
		if clause == "" {
			continue
		}
		var expr string
		if strings.ContainsAny(clause, " \t") {
			expr = fmt.Sprintf("NEAR(%s,1000)", clause)
		} else {
			expr = fmt.Sprintf("%q", clause)
		}
		if scope != "" {
			expr = fmt.Sprintf("%s: %s", scope, expr)
		}
		scoped = append(scoped, expr)
	}
	return strings.Join(scoped, " OR ")
}

// buildFTSQuery scopes a posts_vtab MATCH expression to ftsColumns (§4.3.2).
func buildFTSQuery(text string) string {
	return buildMatchExpr(text, "{"+strings.Join(ftsColumns, " ")+"}")
}

// predicate is the AND-composed WHERE fragment shared by search_posts,
// its COUNT(*) companion, and graph_post (§4.3.2).
type predicate struct {
	fromClause  string
	whereClause string
	args        []any
	useFTS      bool
}

// buildPredicate assembles the FROM/WHERE shared by every post query. Below
// a 3-character query threshold, text search degrades to LIKE over the
// post's title, description and source rather than FTS (§9 Design Notes);
// the other ftsColumns are not searched by short queries.
func buildPredicate(q SearchQuery) predicate {
	var where []string
	var args []any
	from := "posts p"
	useFTS := false

	text := strings.TrimSpace(q.Text)
	if text != "" {
		if len(text) < 3 {
			var likeParts []string
			for _, col := range []string{"p.title", "p.description", "p.source"} {
				likeParts = append(likeParts, col+" LIKE '%' || ? || '%'")
				args = append(args, text)
			}
			where = append(where, "("+strings.Join(likeParts, " OR ")+")")
		} else {
			from = "posts p JOIN posts_vtab v ON v.rowid = p.post_id"
			where = append(where, "posts_vtab MATCH ?")
			args = append(args, buildFTSQuery(text))
			useFTS = true
		}
	}

	if len(q.TagIDs) > 0 {
		for _, tagID := range q.TagIDs {
			where = append(where, "EXISTS (SELECT 1 FROM tags_posts tp WHERE tp.post_id = p.post_id AND tp.tag_id = ?)")
			args = append(args, tagID)
		}
	}

	if q.RequirePlayable {
		where = append(where, "p.post_id IN (SELECT post_id FROM ("+postSelectSQL+" GROUP BY p.post_id HAVING total_duration > 0) req)")
	}

	if q.Source != nil {
		where = append(where, "p.source = ?")
		args = append(args, *q.Source)
	}

	whereSQL := "1=1"
	if len(where) > 0 {
		whereSQL = strings.Join(where, " AND ")
	}

	return predicate{fromClause: from, whereClause: whereSQL, args: args, useFTS: useFTS}
}

func (q SearchQuery) orderBy() string {
	switch q.Order {
	case OrderOldest:
		return "p.created_at ASC"
	case OrderRelevant:
		if strings.TrimSpace(q.Text) != "" {
			return "rank ASC, p.created_at DESC"
		}
		return "p.created_at DESC"
	case OrderRandom:
		return fmt.Sprintf("substr(p.post_id * %g, length(p.post_id)+2)", q.RandomSeed)
	default:
		return "p.created_at DESC"
	}
}

// SearchPosts implements search_posts (§4.3.2): filters via the shared
// predicate builder, ordered per q.Order, paginated.
func (idx *Index) SearchPosts(ctx context.Context, q SearchQuery, page PageParams) (Page[Post], error) {
	pred := buildPredicate(q)

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", pred.fromClause, pred.whereClause)
	var total int64
	if err := idx.db.Reader().QueryRowContext(ctx, countSQL, pred.args...).Scan(&total); err != nil {
		return Page[Post]{}, wrapSQLErr(err)
	}

	selectSQL := fmt.Sprintf(`SELECT p.post_id, p.source, p.title, p.description,
		p.import_batch_id, p.created_at,
		COALESCE((SELECT SUM(m.meta_duration_s) FROM post_items pi
			JOIN content c ON c.content_id = pi.content_id
			JOIN media m ON m.media_id = c.content_id AND m.metadata_kind = 'video'
			WHERE pi.post_id = p.post_id), 0.0) AS total_duration
		FROM %s WHERE %s ORDER BY %s LIMIT ? OFFSET ?`,
		pred.fromClause, pred.whereClause, q.orderBy())

	args := append(append([]any{}, pred.args...), page.PageSize, page.Offset)
	rows, err := idx.db.Reader().QueryContext(ctx, selectSQL, args...)
	if err != nil {
		return Page[Post]{}, wrapSQLErr(err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, ok, err := scanPost(rows)
		if err != nil {
			return Page[Post]{}, err
		}
		if ok {
			posts = append(posts, p)
		}
	}
	if err := rows.Err(); err != nil {
		return Page[Post]{}, wrapSQLErr(err)
	}

	return Page[Post]{
		PageSize:      page.PageSize,
		TotalRowCount: total,
		PageNumber:    page.Offset,
		Data:          posts,
	}, nil
}

// SearchItems lists a post's items matching no extra filter beyond
// pagination; exposed for the boundary API's search_items operation.
func (idx *Index) SearchItems(ctx context.Context, postID int64, page PageParams) (Page[PostItem], error) {
	return idx.GetPageFromPost(ctx, postID, page)
}

// SearchTags performs exact, substring, or full-text search over tag names.
// Exact lookups and substrings under 3 characters stay on the base table;
// longer substring queries route through tags_vtab, ranked like search_posts
// (§4.3.1, mirroring the original's `tags_vtab ... ORDER BY rank`).
func (idx *Index) SearchTags(ctx context.Context, query string, exact bool, page PageParams) (Page[Tag], error) {
	trimmed := strings.TrimSpace(query)

	if exact {
		return searchTagsLike(ctx, idx, "name = ? COLLATE NOCASE", query, "tags.created_at DESC", page)
	}
	if len(trimmed) < 3 {
		return searchTagsLike(ctx, idx, "name LIKE '%' || ? || '%' COLLATE NOCASE", query, "tags.created_at DESC", page)
	}

	matchExpr := buildMatchExpr(trimmed, "")

	var total int64
	if err := idx.db.Reader().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tags_vtab WHERE tags_vtab MATCH ?", matchExpr).Scan(&total); err != nil {
		return Page[Tag]{}, wrapSQLErr(err)
	}

	rows, err := idx.db.Reader().QueryContext(ctx,
		tagSelect+` JOIN tags_vtab v ON v.rowid = tags.tag_id
			WHERE tags_vtab MATCH ? ORDER BY rank LIMIT ? OFFSET ?`,
		matchExpr, page.PageSize, page.Offset)
	if err != nil {
		return Page[Tag]{}, wrapSQLErr(err)
	}
	defer rows.Close()

	tags, err := scanTags(rows)
	if err != nil {
		return Page[Tag]{}, err
	}

	return Page[Tag]{
		PageSize:      page.PageSize,
		TotalRowCount: total,
		PageNumber:    page.Offset,
		Data:          tags,
	}, nil
}

func searchTagsLike(ctx context.Context, idx *Index, clause, arg, order string, page PageParams) (Page[Tag], error) {
	var total int64
	if err := idx.db.Reader().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM tags WHERE "+clause, arg).Scan(&total); err != nil {
		return Page[Tag]{}, wrapSQLErr(err)
	}

	rows, err := idx.db.Reader().QueryContext(ctx,
		tagSelect+" WHERE "+clause+" ORDER BY "+order+" LIMIT ? OFFSET ?",
		arg, page.PageSize, page.Offset)
	if err != nil {
		return Page[Tag]{}, wrapSQLErr(err)
	}
	defer rows.Close()

	tags, err := scanTags(rows)
	if err != nil {
		return Page[Tag]{}, err
	}

	return Page[Tag]{
		PageSize:      page.PageSize,
		TotalRowCount: total,
		PageNumber:    page.Offset,
		Data:          tags,
	}, nil
}

func scanTags(rows *sql.Rows) ([]Tag, error) {
	var tags []Tag
	for rows.Next() {
		t, ok, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		if ok {
			tags = append(tags, t)
		}
	}
	return tags, wrapSQLErr(rows.Err())
}

// GraphPost implements graph_post (§4.3.3): y is a running sum
// (SUM(COUNT(*)*1.0) OVER (ROWS UNBOUNDED PRECEDING)), x is a time bucket
// when discriminator is Date, or a single ungrouped bucket when None.
//
// Resolves §9 Open Question 1 in favor of running totals, not per-bucket
// counts — see DESIGN.md.
func (idx *Index) GraphPost(ctx context.Context, q SearchQuery, discriminator GraphDiscriminator, bucketSeconds int64) (Graph, error) {
	pred := buildPredicate(q)

	var groupExpr, kind string
	switch discriminator {
	case DiscriminatorDate:
		if bucketSeconds <= 0 {
			bucketSeconds = 86400
		}
		groupExpr = fmt.Sprintf("CAST(strftime('%%s', p.created_at) AS INTEGER) / %d", bucketSeconds)
		kind = "date"
	default:
		groupExpr = "0"
		kind = "none"
	}

	querySQL := fmt.Sprintf(`
		SELECT x, SUM(cnt * 1.0) OVER (ORDER BY x ROWS UNBOUNDED PRECEDING) AS running
		FROM (
			SELECT %s AS x, COUNT(*) AS cnt
			FROM %s WHERE %s
			GROUP BY x
			ORDER BY x
		) buckets`, groupExpr, pred.fromClause, pred.whereClause)

	rows, err := idx.db.Reader().QueryContext(ctx, querySQL, pred.args...)
	if err != nil {
		return Graph{}, wrapSQLErr(err)
	}
	defer rows.Close()

	var graph Graph
	for rows.Next() {
		var pt GraphPoint
		if err := rows.Scan(&pt.X, &pt.Y); err != nil {
			return Graph{}, wrapSQLErr(err)
		}
		pt.Kind = kind
		graph.Points = append(graph.Points, pt)
	}
	return graph, wrapSQLErr(rows.Err())
}
