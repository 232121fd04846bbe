package game

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Monster is a progression gate on the board.
type Monster struct {
	Level        int    `yaml:"level" json:"level"`
	Name         string `yaml:"name" json:"name"`
	Image        string `yaml:"image" json:"image"`
	MinScore     int    `yaml:"min_score" json:"minScore"`
	MinTaskValue int    `yaml:"min_task_value" json:"minTaskValue"`
	Description  string `yaml:"description" json:"description"`
}

type monstersFile struct {
	Monsters []Monster `yaml:"monsters"`
}

// DefaultMonsters is the built-in gate table.
func DefaultMonsters() []Monster {
	return []Monster{
		{
			Level:        1,
			Name:         "Dust Bunny Rex",
			Image:        "https://picsum.photos/seed/monster1/200/200",
			MinScore:     50,
			MinTaskValue: 30,
			Description:  "A giant dust bunny blocks the road. Only a proper clean-up gets you past it.",
		},
		{
			Level:        2,
			Name:         "Dish Mountain",
			Image:        "https://picsum.photos/seed/monster2/200/200",
			MinScore:     100,
			MinTaskValue: 40,
			Description:  "A mountain of dirty dishes is about to collapse. Only a hero can wash it away.",
		},
		{
			Level:        3,
			Name:         "Chaos Troll",
			Image:        "https://picsum.photos/seed/monster3/200/200",
			MinScore:     150,
			MinTaskValue: 50,
			Description:  "He makes a mess faster than you can tidy up. Prove your speed!",
		},
	}
}

var (
	monstersMu sync.RWMutex
	monsters   = DefaultMonsters()
)

// Monsters returns the active gate table ordered by MinScore.
func Monsters() []Monster {
	monstersMu.RLock()
	defer monstersMu.RUnlock()
	out := make([]Monster, len(monsters))
	copy(out, monsters)
	return out
}

// SetMonsters replaces the active gate table.
func SetMonsters(ms []Monster) {
	sorted := make([]Monster, len(ms))
	copy(sorted, ms)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinScore < sorted[j].MinScore })
	monstersMu.Lock()
	monsters = sorted
	monstersMu.Unlock()
}

// LoadMonsters reads a gate table from a YAML file of the form
//
//	monsters:
//	  - level: 1
//	    name: ...
//	    min_score: 50
//	    min_task_value: 30
func LoadMonsters(path string) ([]Monster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read monsters file: %w", err)
	}
	var f monstersFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse monsters file: %w", err)
	}
	if len(f.Monsters) == 0 {
		return nil, fmt.Errorf("monsters file %s defines no monsters", path)
	}
	for _, m := range f.Monsters {
		if m.MinScore <= 0 || m.MinTaskValue <= 0 {
			return nil, fmt.Errorf("monster %q needs positive min_score and min_task_value", m.Name)
		}
	}
	sort.SliceStable(f.Monsters, func(i, j int) bool { return f.Monsters[i].MinScore < f.Monsters[j].MinScore })
	return f.Monsters, nil
}
