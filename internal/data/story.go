package data

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/daemonforge/solorpg/internal/effect"
	"github.com/daemonforge/solorpg/internal/rules"
	"github.com/daemonforge/solorpg/internal/world"
)

type storyFile struct {
	ID         string            `yaml:"id"`
	Title      string            `yaml:"title"`
	Text       string            `yaml:"text"`
	OwnerNpcID string            `yaml:"owner_npc_id"`
	Choices    []storyChoiceFile `yaml:"choices"`
}

type storyChoiceFile struct {
	Label      string          `yaml:"label"`
	Next       string          `yaml:"next"`
	Effects    []string        `yaml:"effects"`
	SkillCheck *skillCheckFile `yaml:"skill_check"`
}

type skillCheckFile struct {
	Attribute     string `yaml:"attribute"`
	Skill         string `yaml:"skill"`
	TargetNumber  int    `yaml:"target_number"`
	OpponentNpcID string `yaml:"opponent_npc_id"`
}

// decodeStoryNode parses one story/*.yaml document. It also returns every
// raw effect string so the loader can report the ones it cannot apply.
func decodeStoryNode(file string, raw []byte) (*world.StoryNode, []string, error) {
	var f storyFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrPackageContentInvalid, file, err)
	}
	if f.ID == "" {
		return nil, nil, fmt.Errorf("%w: %s: story node has no id", ErrPackageContentInvalid, file)
	}

	node := &world.StoryNode{
		ID:         f.ID,
		Title:      f.Title,
		Text:       f.Text,
		OwnerNpcID: f.OwnerNpcID,
		Choices:    make([]world.StoryChoice, 0, len(f.Choices)),
	}
	var rawEffects []string
	for i, c := range f.Choices {
		choice := world.StoryChoice{
			Label:   c.Label,
			Next:    c.Next,
			Effects: effect.ParseAll(c.Effects),
		}
		rawEffects = append(rawEffects, c.Effects...)
		if c.SkillCheck != nil {
			sc, err := decodeSkillCheck(c.SkillCheck)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %s: choice %d: %v", ErrPackageContentInvalid, file, i, err)
			}
			choice.SkillCheck = sc
		}
		node.Choices = append(node.Choices, choice)
	}
	return node, rawEffects, nil
}

func decodeSkillCheck(f *skillCheckFile) (*world.SkillCheck, error) {
	attr, err := rules.ParseAttribute(f.Attribute)
	if err != nil {
		return nil, err
	}
	skill, err := rules.ParseSkill(f.Skill)
	if err != nil {
		return nil, err
	}
	return &world.SkillCheck{
		Attribute:     attr,
		Skill:         skill,
		TargetNumber:  f.TargetNumber,
		OpponentNpcID: f.OpponentNpcID,
	}, nil
}
