package domain

import "time"

// RunStatus - итог запуска рассылки.
type RunStatus string

const (
	RunDelivered RunStatus = "delivered"
	RunSkipped   RunStatus = "skipped"
	RunFailed    RunStatus = "failed"
)

// Digest - то, что ядро передает рендеру и доставке.
// Order задает порядок категорий из конфигурации, Categories может содержать пустые списки.
type Digest struct {
	GeneratedAt time.Time                 `json:"generated_at"`
	Order       []string                  `json:"order"`
	Categories  map[string]CategoryResult `json:"categories"`
	Reminders   []Bookmark                `json:"reminders"`
}

// ItemCount возвращает общее число новостей во всех категориях.
func (d *Digest) ItemCount() int {
	total := 0
	for _, items := range d.Categories {
		total += len(items)
	}
	return total
}

// RunResult описывает результат одного запуска.
type RunResult struct {
	RunID      string    `json:"run_id"`
	Status     RunStatus `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	DeliveryID string    `json:"delivery_id,omitempty"`
	ItemCount  int       `json:"item_count"`
	FinishedAt time.Time `json:"finished_at"`
}

// Email - готовое к отправке письмо.
type Email struct {
	To      []string
	Subject string
	HTML    string
}
