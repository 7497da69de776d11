package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PathSeparator joins category names in a display path.
const PathSeparator = " > "

type Category struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	ParentID  *int      `json:"parent_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CategoryNode is a category with its children, used for hierarchical listings.
type CategoryNode struct {
	Category
	Children []*CategoryNode `json:"children"`
}

// CategoryService manages the product category tree. A category may never
// become its own ancestor.
type CategoryService interface {
	Create(ctx context.Context, name string, parentID *int) (*Category, error)
	Get(ctx context.Context, id int) (*Category, error)
	Rename(ctx context.Context, id int, name string) (*Category, error)
	// UpdateParent moves a category. A nil parent makes it a root.
	UpdateParent(ctx context.Context, id int, newParentID *int) (*Category, error)
	// Delete removes a leaf category and unassigns its products. It returns the
	// number of products unassigned.
	Delete(ctx context.Context, id int) (int64, error)
	List(ctx context.Context) ([]Category, error)
	Tree(ctx context.Context) ([]*CategoryNode, error)
	PathString(ctx context.Context, id int) (string, error)
}

type categoryService struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewCategoryService(pool *pgxpool.Pool, logger *zap.Logger) CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &categoryService{pool: pool, logger: logger}
}

func (s *categoryService) Create(ctx context.Context, name string, parentID *int) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("category name is required")
	}

	var c *Category
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := advisoryXactLock(ctx, tx, categoryTreeLockKey); err != nil {
			return err
		}
		if parentID != nil {
			if _, err := fetchCategory(ctx, tx, *parentID); err != nil {
				if errors.Is(err, ErrNotFound) {
					return notFoundf("parent category %d not found", *parentID)
				}
				return err
			}
		}
		if err := checkSiblingName(ctx, tx, parentID, name, 0); err != nil {
			return err
		}

		var err error
		c, err = scanCategory(tx.QueryRow(ctx, `
			INSERT INTO product_categories (name, parent_id)
			VALUES ($1, $2)
			RETURNING id, name, parent_id, created_at
		`, name, parentID))
		if err != nil {
			return storageErr(fmt.Sprintf("create category %q", name), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *categoryService) Get(ctx context.Context, id int) (*Category, error) {
	return fetchCategory(ctx, s.pool, id)
}

func (s *categoryService) Rename(ctx context.Context, id int, name string) (*Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("category name is required")
	}

	var c *Category
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := advisoryXactLock(ctx, tx, categoryTreeLockKey); err != nil {
			return err
		}
		current, err := fetchCategory(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := checkSiblingName(ctx, tx, current.ParentID, name, id); err != nil {
			return err
		}
		c, err = scanCategory(tx.QueryRow(ctx, `
			UPDATE product_categories SET name = $1 WHERE id = $2
			RETURNING id, name, parent_id, created_at
		`, name, id))
		if err != nil {
			return storageErr(fmt.Sprintf("rename category %d", id), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateParent rejects self-parenting and any move under one of the category's
// own descendants. The descendant set is computed fresh from the full tree
// while the tree lock is held.
func (s *categoryService) UpdateParent(ctx context.Context, id int, newParentID *int) (*Category, error) {
	if newParentID != nil && *newParentID == id {
		return nil, &Error{Kind: ErrValidation, Msg: fmt.Sprintf("move category %d", id), Err: ErrSelfParent}
	}

	var c *Category
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := advisoryXactLock(ctx, tx, categoryTreeLockKey); err != nil {
			return err
		}
		current, err := fetchCategory(ctx, tx, id)
		if err != nil {
			return err
		}
		if newParentID != nil {
			if _, err := fetchCategory(ctx, tx, *newParentID); err != nil {
				if errors.Is(err, ErrNotFound) {
					return notFoundf("parent category %d not found", *newParentID)
				}
				return err
			}
			all, err := loadCategories(ctx, tx)
			if err != nil {
				return err
			}
			if descendants(all, id)[*newParentID] {
				return &Error{
					Kind: ErrValidation,
					Msg:  fmt.Sprintf("move category %d under %d", id, *newParentID),
					Err:  ErrCycleDetected,
				}
			}
		}
		if err := checkSiblingName(ctx, tx, newParentID, current.Name, id); err != nil {
			return err
		}

		c, err = scanCategory(tx.QueryRow(ctx, `
			UPDATE product_categories SET parent_id = $1 WHERE id = $2
			RETURNING id, name, parent_id, created_at
		`, newParentID, id))
		if err != nil {
			return storageErr(fmt.Sprintf("move category %d", id), err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("category moved", zap.Int("category_id", id), zap.Any("parent_id", newParentID))
	return c, nil
}

func (s *categoryService) Delete(ctx context.Context, id int) (int64, error) {
	var unassigned int64
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := advisoryXactLock(ctx, tx, categoryTreeLockKey); err != nil {
			return err
		}
		if _, err := fetchCategory(ctx, tx, id); err != nil {
			return err
		}

		var children int
		if err := tx.QueryRow(ctx,
			"SELECT COUNT(*) FROM product_categories WHERE parent_id = $1", id,
		).Scan(&children); err != nil {
			return storageErr("count child categories", err)
		}
		if children > 0 {
			return validationf("category %d has %d child categories; move or delete them first", id, children)
		}

		tag, err := tx.Exec(ctx, "UPDATE products SET category_id = NULL WHERE category_id = $1", id)
		if err != nil {
			return storageErr(fmt.Sprintf("unassign products from category %d", id), err)
		}
		unassigned = tag.RowsAffected()

		if _, err := tx.Exec(ctx, "DELETE FROM product_categories WHERE id = $1", id); err != nil {
			return storageErr(fmt.Sprintf("delete category %d", id), err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("category deleted", zap.Int("category_id", id), zap.Int64("products_unassigned", unassigned))
	return unassigned, nil
}

func (s *categoryService) List(ctx context.Context) ([]Category, error) {
	all, err := loadCategories(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool {
		return strings.ToLower(all[i].Name) < strings.ToLower(all[j].Name)
	})
	return all, nil
}

func (s *categoryService) Tree(ctx context.Context) ([]*CategoryNode, error) {
	all, err := loadCategories(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	return buildTree(all), nil
}

func (s *categoryService) PathString(ctx context.Context, id int) (string, error) {
	all, err := loadCategories(ctx, s.pool)
	if err != nil {
		return "", err
	}
	names, err := categoryPath(all, id)
	if err != nil {
		return "", err
	}
	return strings.Join(names, PathSeparator), nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func fetchCategory(ctx context.Context, q querier, id int) (*Category, error) {
	c, err := scanCategory(q.QueryRow(ctx,
		"SELECT id, name, parent_id, created_at FROM product_categories WHERE id = $1", id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("category %d not found", id)
		}
		return nil, storageErr(fmt.Sprintf("fetch category %d", id), err)
	}
	return c, nil
}

func loadCategories(ctx context.Context, q querier) ([]Category, error) {
	rows, err := q.Query(ctx, "SELECT id, name, parent_id, created_at FROM product_categories ORDER BY id")
	if err != nil {
		return nil, storageErr("query categories", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, storageErr("scan category", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate categories", err)
	}
	return out, nil
}

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	if err := row.Scan(&c.ID, &c.Name, &c.ParentID, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// checkSiblingName rejects a name already used (case-insensitively) under the
// same parent. selfID excludes the category being renamed or moved.
func checkSiblingName(ctx context.Context, q querier, parentID *int, name string, selfID int) error {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM product_categories
			WHERE COALESCE(parent_id, 0) = COALESCE($1::int, 0)
			  AND lower(name) = lower($2)
			  AND id <> $3
		)`, parentID, name, selfID,
	).Scan(&exists)
	if err != nil {
		return storageErr("check sibling category names", err)
	}
	if exists {
		return conflictf("category %q already exists under this parent", name)
	}
	return nil
}

// descendants returns every category below root, found breadth-first over the
// parent links in all. root itself is not included.
func descendants(all []Category, root int) map[int]bool {
	children := make(map[int][]int, len(all))
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	seen := make(map[int]bool)
	queue := []int{root}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, child := range children[next] {
			if child == root || seen[child] {
				continue
			}
			seen[child] = true
			queue = append(queue, child)
		}
	}
	return seen
}

// categoryPath returns names from the root down to id.
func categoryPath(all []Category, id int) ([]string, error) {
	byID := make(map[int]Category, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	if _, ok := byID[id]; !ok {
		return nil, notFoundf("category %d not found", id)
	}

	var names []string
	visited := make(map[int]bool)
	for cur, ok := byID[id]; ok; {
		if visited[cur.ID] {
			return nil, newError(ErrStorage, "category %d has a cyclic parent chain", id)
		}
		visited[cur.ID] = true
		names = append(names, cur.Name)
		if cur.ParentID == nil {
			break
		}
		cur, ok = byID[*cur.ParentID]
	}

	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return names, nil
}

// buildTree nests categories under their parents, ordering siblings by name.
func buildTree(all []Category) []*CategoryNode {
	nodes := make(map[int]*CategoryNode, len(all))
	for _, c := range all {
		nodes[c.ID] = &CategoryNode{Category: c, Children: []*CategoryNode{}}
	}

	var roots []*CategoryNode
	for _, c := range all {
		n := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	var sortNodes func([]*CategoryNode)
	sortNodes = func(ns []*CategoryNode) {
		sort.SliceStable(ns, func(i, j int) bool {
			return strings.ToLower(ns[i].Name) < strings.ToLower(ns[j].Name)
		})
		for _, n := range ns {
			sortNodes(n.Children)
		}
	}
	sortNodes(roots)
	return roots
}
