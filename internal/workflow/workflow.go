// Package workflow tracks projects through a fixed approval pipeline.
package workflow

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound  = errors.New("workflow not found")
	ErrCompleted = errors.New("workflow already completed")
)

type ValidationError string

func (e ValidationError) Error() string { return string(e) }

type Step struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

var pipeline = []Step{
	{Name: "Aberto", Description: "Pedido criado e aguardando análise"},
	{Name: "Em Análise", Description: "Sendo avaliado pela equipe"},
	{Name: "Em Execução", Description: "Desenvolvimento em andamento"},
	{Name: "Concluído", Description: "Pedido finalizado com sucesso"},
}

// Steps returns a copy of the pipeline in order.
func Steps() []Step {
	out := make([]Step, len(pipeline))
	copy(out, pipeline)
	return out
}

type Project struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Client        string    `json:"client"`
	Priority      string    `json:"priority"`
	Assignee      string    `json:"assignee"`
	EstimatedTime string    `json:"estimated_time,omitempty"`
	CurrentStep   int       `json:"current_step"`
	Status        string    `json:"status"`
	Progress      int       `json:"progress"`
	Completed     bool      `json:"completed"`
	Steps         []Step    `json:"steps"`
	LastUpdated   time.Time `json:"last_updated"`
}

// refresh recomputes the fields derived from CurrentStep.
func (p Project) refresh() Project {
	p.Status = pipeline[p.CurrentStep].Name
	p.Progress = (p.CurrentStep + 1) * 100 / len(pipeline)
	p.Completed = p.CurrentStep == len(pipeline)-1
	p.Steps = Steps()
	return p
}

// Approve moves p one step forward. At the last step it returns p unchanged
// and ErrCompleted.
func Approve(p Project, now time.Time) (Project, error) {
	if p.CurrentStep >= len(pipeline)-1 {
		return p, ErrCompleted
	}
	p.CurrentStep++
	p.LastUpdated = now.UTC()
	return p.refresh(), nil
}

type CreateRequest struct {
	Name          string `json:"name"`
	Client        string `json:"client"`
	Priority      string `json:"priority"`
	Assignee      string `json:"assignee"`
	EstimatedTime string `json:"estimated_time"`
}

func (r CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ValidationError("name is required")
	}
	return nil
}

func NewProject(req CreateRequest, now time.Time) Project {
	p := Project{
		Name:          strings.TrimSpace(req.Name),
		Client:        strings.TrimSpace(req.Client),
		Priority:      strings.TrimSpace(req.Priority),
		Assignee:      strings.TrimSpace(req.Assignee),
		EstimatedTime: strings.TrimSpace(req.EstimatedTime),
		LastUpdated:   now.UTC(),
	}
	if p.Priority == "" {
		p.Priority = "Média"
	}
	return p.refresh()
}
