// Package catalog loads the master data (prizes, quests, titles and shop
// items) from YAML and upserts it by code.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/officing/models"
	"github.com/cppla/officing/repository"
	"github.com/cppla/officing/utils"
)

var (
	// ErrInvalid wraps every validation failure.
	ErrInvalid = errors.New("invalid catalog")
	// ErrConflict means an entry collides with an existing row under another code.
	ErrConflict = errors.New("catalog conflicts with existing data")
)

// Catalog is the whole master data set.
type Catalog struct {
	Prizes    []Prize    `yaml:"prizes"`
	Quests    []Quest    `yaml:"quests"`
	Titles    []Title    `yaml:"titles"`
	ShopItems []ShopItem `yaml:"shop_items"`
}

type Prize struct {
	Code        string                 `yaml:"code"`
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Rank        string                 `yaml:"rank"`
	Weight      float64                `yaml:"weight"`
	RewardType  string                 `yaml:"reward_type"`
	RewardValue map[string]interface{} `yaml:"reward_value"`
	Stock       *int                   `yaml:"stock"`
	Available   *bool                  `yaml:"available"`
}

type Quest struct {
	Code        string `yaml:"code"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Rank        string `yaml:"rank"`
	BaseXP      int    `yaml:"base_xp"`
	BasePoints  int    `yaml:"base_points"`
	Type        string `yaml:"type"`
	Active      *bool  `yaml:"active"`
}

type Title struct {
	Code        string                 `yaml:"code"`
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Condition   string                 `yaml:"condition"`
	Value       map[string]interface{} `yaml:"value"`
}

type ShopItem struct {
	Code        string                 `yaml:"code"`
	Name        string                 `yaml:"name"`
	Description string                 `yaml:"description"`
	Type        string                 `yaml:"type"`
	Value       map[string]interface{} `yaml:"value"`
	Cost        int                    `yaml:"cost"`
	Active      *bool                  `yaml:"active"`
}

// Summary counts the rows written by Apply.
type Summary struct {
	Prizes    int `json:"prizes"`
	Quests    int `json:"quests"`
	Titles    int `json:"titles"`
	ShopItems int `json:"shop_items"`
}

// Parse decodes and validates a YAML catalog. Unknown fields are rejected.
func Parse(data []byte) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	c.normalizeTags()
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

// normalizeTags runs tag condition values through the same cleanup as
// check-in tags so the two compare equal.
func (c *Catalog) normalizeTags() {
	for i := range c.Titles {
		t := &c.Titles[i]
		if t.Condition != models.ConditionTag {
			continue
		}
		if tag, ok := t.Value["tag"].(string); ok {
			t.Value["tag"] = utils.SanitizeTag(tag)
		}
	}
}

// Load reads and parses the catalog file at path.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}
	return Parse(data)
}

var ranks = map[string]bool{models.RankS: true, models.RankA: true, models.RankB: true, models.RankC: true}

// Validate checks codes, ranks, weights and reward types.
func (c Catalog) Validate() error {
	seen := map[string]bool{}
	check := func(kind, code string) error {
		if code == "" {
			return fmt.Errorf("%w: %s without code", ErrInvalid, kind)
		}
		if seen[kind+"/"+code] {
			return fmt.Errorf("%w: duplicate %s code %q", ErrInvalid, kind, code)
		}
		seen[kind+"/"+code] = true
		return nil
	}

	for _, p := range c.Prizes {
		if err := check("prize", p.Code); err != nil {
			return err
		}
		if !ranks[p.Rank] {
			return fmt.Errorf("%w: prize %q has rank %q", ErrInvalid, p.Code, p.Rank)
		}
		if p.Weight < 0 {
			return fmt.Errorf("%w: prize %q has negative weight", ErrInvalid, p.Code)
		}
		if p.Stock != nil && *p.Stock < 0 {
			return fmt.Errorf("%w: prize %q has negative stock", ErrInvalid, p.Code)
		}
		switch p.RewardType {
		case models.RewardPoints, models.RewardTitle, models.RewardStamp, models.RewardItem:
		default:
			return fmt.Errorf("%w: prize %q has reward type %q", ErrInvalid, p.Code, p.RewardType)
		}
	}
	for _, q := range c.Quests {
		if err := check("quest", q.Code); err != nil {
			return err
		}
		if !ranks[q.Rank] {
			return fmt.Errorf("%w: quest %q has rank %q", ErrInvalid, q.Code, q.Rank)
		}
		if q.BaseXP < 0 || q.BasePoints < 0 {
			return fmt.Errorf("%w: quest %q has negative rewards", ErrInvalid, q.Code)
		}
	}
	names := map[string]bool{}
	for _, t := range c.Titles {
		if err := check("title", t.Code); err != nil {
			return err
		}
		if t.Name == "" || names[t.Name] {
			return fmt.Errorf("%w: title %q needs a unique name", ErrInvalid, t.Code)
		}
		names[t.Name] = true
	}
	for _, s := range c.ShopItems {
		if err := check("shop item", s.Code); err != nil {
			return err
		}
		if s.Cost < 0 {
			return fmt.Errorf("%w: shop item %q has negative cost", ErrInvalid, s.Code)
		}
	}
	return nil
}

// Apply upserts every entry by code in one transaction. Entries missing from
// the catalog are left untouched.
func Apply(ctx context.Context, db *gorm.DB, c Catalog) (Summary, error) {
	var sum Summary
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range c.Titles {
			row := models.Title{
				Code:                 t.Code,
				Name:                 t.Name,
				Description:          t.Description,
				UnlockConditionType:  t.Condition,
				UnlockConditionValue: toJSON(t.Value),
			}
			if err := upsert(tx, &row, "name", "description", "unlock_condition_type", "unlock_condition_value"); err != nil {
				return fmt.Errorf("title %q: %w", t.Code, err)
			}
			sum.Titles++
		}
		for _, p := range c.Prizes {
			row := models.Prize{
				Code:        p.Code,
				Name:        p.Name,
				Description: p.Description,
				Rank:        p.Rank,
				Weight:      p.Weight,
				RewardType:  p.RewardType,
				RewardValue: toJSON(p.RewardValue),
				Stock:       p.Stock,
				IsAvailable: orTrue(p.Available),
			}
			if err := upsert(tx, &row, "name", "description", "rank", "weight", "reward_type", "reward_value", "stock", "is_available"); err != nil {
				return fmt.Errorf("prize %q: %w", p.Code, err)
			}
			sum.Prizes++
		}
		for _, q := range c.Quests {
			typ := q.Type
			if typ == "" {
				typ = models.QuestTypeDaily
			}
			row := models.Quest{
				Code:        q.Code,
				Title:       q.Title,
				Description: q.Description,
				Rank:        q.Rank,
				BaseXP:      q.BaseXP,
				BasePoints:  q.BasePoints,
				QuestType:   typ,
				IsActive:    orTrue(q.Active),
			}
			if err := upsert(tx, &row, "title", "description", "rank", "base_xp", "base_points", "quest_type", "is_active"); err != nil {
				return fmt.Errorf("quest %q: %w", q.Code, err)
			}
			sum.Quests++
		}
		for _, s := range c.ShopItems {
			row := models.ShopItem{
				Code:        s.Code,
				Name:        s.Name,
				Description: s.Description,
				ItemType:    s.Type,
				ItemValue:   toJSON(s.Value),
				Cost:        s.Cost,
				IsActive:    orTrue(s.Active),
			}
			if err := upsert(tx, &row, "name", "description", "item_type", "item_value", "cost", "is_active"); err != nil {
				return fmt.Errorf("shop item %q: %w", s.Code, err)
			}
			sum.ShopItems++
		}
		return nil
	})
	return sum, err
}

func upsert(tx *gorm.DB, row interface{}, columns ...string) error {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(row).Error
	if repository.IsUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}

func toJSON(v map[string]interface{}) datatypes.JSON {
	if len(v) == 0 {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func orTrue(b *bool) bool {
	return b == nil || *b
}
