// Package mcp provides the Model Context Protocol server integration for
// taskboard.
package mcp

import (
	"context"
	"errors"
	"strings"

	log "github.com/sirupsen/logrus"

	"tableflip.dev/taskboard/pkg/app"
	"tableflip.dev/taskboard/pkg/category"
	"tableflip.dev/taskboard/pkg/interchange"
	"tableflip.dev/taskboard/pkg/order"
	"tableflip.dev/taskboard/pkg/task"
)

// Service adapts the task service to transport-friendly values shared by the
// MCP tools and resources.
type Service struct {
	App *app.Service
}

// TaskDTO is a transport-friendly projection of a task.
type TaskDTO struct {
	ID            string `json:"id"`
	Text          string `json:"text"`
	Category      string `json:"category"`
	CategoryShort string `json:"categoryShort"`
	Completed     bool   `json:"completed"`
	Order         int    `json:"order,omitempty"`
	CreatedISO    string `json:"created,omitempty"`
}

// BlockDTO is one category block in display order.
type BlockDTO struct {
	Category    string    `json:"category"`
	Short       string    `json:"short"`
	ResetsDaily bool      `json:"resetsDaily"`
	Count       int       `json:"count"`
	Tasks       []TaskDTO `json:"tasks"`
}

// BoardDTO is the whole board with progress.
type BoardDTO struct {
	Blocks    []BlockDTO `json:"blocks"`
	Completed int        `json:"completed"`
	Total     int        `json:"total"`
	Progress  float64    `json:"progress"`
}

// NewService builds a service wrapper around a.
func NewService(a *app.Service) *Service {
	return &Service{App: a}
}

func (s *Service) ready() error {
	if s == nil || s.App == nil || s.App.Store == nil {
		return errors.New("store is not configured")
	}
	return nil
}

// currentBoard runs the daily reset before reading. An MCP session can outlive
// the day it started on.
func (s *Service) currentBoard(ctx context.Context) (order.Board, error) {
	if _, err := s.App.ResetIfDue(ctx); err != nil {
		var logger log.FieldLogger = log.StandardLogger()
		if s.App.Log != nil {
			logger = s.App.Log
		}
		logger.WithError(err).Warn("daily reset failed")
	}
	return s.App.Board(ctx)
}

// Board returns every category block.
func (s *Service) Board(ctx context.Context) (BoardDTO, error) {
	if err := s.ready(); err != nil {
		return BoardDTO{}, err
	}
	b, err := s.currentBoard(ctx)
	if err != nil {
		return BoardDTO{}, err
	}
	return s.boardDTO(b), nil
}

// Block returns the block for a category name or short label.
func (s *Service) Block(ctx context.Context, raw string) (BlockDTO, error) {
	if err := s.ready(); err != nil {
		return BlockDTO{}, err
	}
	name, err := s.App.CategorySet().Parse(raw)
	if err != nil {
		return BlockDTO{}, err
	}
	b, err := s.currentBoard(ctx)
	if err != nil {
		return BlockDTO{}, err
	}
	blk, _ := b.Block(name)
	return s.blockDTO(blk), nil
}

// AddTask creates a task. Blank text is ignored and yields nil.
func (s *Service) AddTask(ctx context.Context, text, cat string) (*TaskDTO, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var name category.Name
	if strings.TrimSpace(cat) != "" {
		var err error
		if name, err = s.App.CategorySet().Parse(cat); err != nil {
			return nil, err
		}
	}
	t, err := s.App.Add(ctx, text, name)
	if err != nil || t == nil {
		return nil, err
	}
	dto := s.taskDTO(*t)
	return &dto, nil
}

// ToggleTask flips the completed flag.
func (s *Service) ToggleTask(ctx context.Context, ref string) (TaskDTO, error) {
	if err := s.ready(); err != nil {
		return TaskDTO{}, err
	}
	id, err := s.App.Resolve(ctx, ref)
	if err != nil {
		return TaskDTO{}, err
	}
	t, err := s.App.Toggle(ctx, id)
	if err != nil {
		return TaskDTO{}, err
	}
	return s.taskDTO(*t), nil
}

// DeleteTask removes a task and returns its id.
func (s *Service) DeleteTask(ctx context.Context, ref string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	id, err := s.App.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if err := s.App.Delete(ctx, id); err != nil {
		return "", err
	}
	return string(id), nil
}

// MoveTask swaps a task with its neighbour and returns the affected block.
func (s *Service) MoveTask(ctx context.Context, ref, direction string) (BlockDTO, error) {
	if err := s.ready(); err != nil {
		return BlockDTO{}, err
	}
	dir, err := order.ParseDirection(strings.ToLower(strings.TrimSpace(direction)))
	if err != nil {
		return BlockDTO{}, err
	}
	id, err := s.App.Resolve(ctx, ref)
	if err != nil {
		return BlockDTO{}, err
	}
	if err := s.App.Move(ctx, id, dir); err != nil {
		return BlockDTO{}, err
	}
	b, err := s.App.Board(ctx)
	if err != nil {
		return BlockDTO{}, err
	}
	for _, blk := range b.Blocks {
		if _, ok := task.Find(blk.Tasks, id); ok {
			return s.blockDTO(blk), nil
		}
	}
	return BlockDTO{}, app.ErrNotFound
}

// ChangeCategory moves a task to the tail of another category.
func (s *Service) ChangeCategory(ctx context.Context, ref, cat string) (TaskDTO, error) {
	if err := s.ready(); err != nil {
		return TaskDTO{}, err
	}
	name, err := s.App.CategorySet().Parse(cat)
	if err != nil {
		return TaskDTO{}, err
	}
	id, err := s.App.Resolve(ctx, ref)
	if err != nil {
		return TaskDTO{}, err
	}
	t, err := s.App.SetCategory(ctx, id, name)
	if err != nil {
		return TaskDTO{}, err
	}
	return s.taskDTO(*t), nil
}

// Export renders the collection as an interchange document.
func (s *Service) Export(ctx context.Context, format string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}
	f, err := interchange.ParseFormat(format)
	if err != nil {
		return "", err
	}
	data, err := s.App.Export(ctx, f)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Import replaces the collection with document.
func (s *Service) Import(ctx context.Context, document string) (app.ImportResult, error) {
	if err := s.ready(); err != nil {
		return app.ImportResult{}, err
	}
	return s.App.Import(ctx, []byte(document))
}

func (s *Service) taskDTO(t task.Task) TaskDTO {
	dto := TaskDTO{
		ID:        string(t.ID),
		Text:      t.Text,
		Category:  string(t.Category),
		Completed: t.Completed,
		Order:     t.Order,
	}
	if c, ok := s.App.CategorySet().Get(t.Category); ok {
		dto.CategoryShort = c.Short
	}
	if t.CreatedAt != nil && !t.CreatedAt.IsZero() {
		dto.CreatedISO = t.CreatedAt.String()
	}
	return dto
}

func (s *Service) blockDTO(blk order.Block) BlockDTO {
	dto := BlockDTO{
		Category:    string(blk.Name),
		Short:       blk.Category.Short,
		ResetsDaily: blk.Category.ResetsDaily,
		Count:       len(blk.Tasks),
		Tasks:       make([]TaskDTO, 0, len(blk.Tasks)),
	}
	for _, t := range blk.Tasks {
		dto.Tasks = append(dto.Tasks, s.taskDTO(t))
	}
	return dto
}

func (s *Service) boardDTO(b order.Board) BoardDTO {
	dto := BoardDTO{
		Blocks:    make([]BlockDTO, 0, len(b.Blocks)),
		Completed: b.Completed,
		Total:     b.Total,
		Progress:  b.Progress(),
	}
	for _, blk := range b.Blocks {
		dto.Blocks = append(dto.Blocks, s.blockDTO(blk))
	}
	return dto
}
