package usecase

import (
	"sort"

	"github.com/nguyentranbao-ct/hds-chat/internal/models"
)

type eventLister interface {
	Events() []models.Event
}

// DiaryUsecase projects the event cache into diary items.
type DiaryUsecase struct {
	events     eventLister
	translator Translator
}

func NewDiaryUsecase(events eventLister, translator Translator) *DiaryUsecase {
	return &DiaryUsecase{events: events, translator: translator}
}

// Items returns the displayable events, newest first. limit <= 0 means all.
func (uc *DiaryUsecase) Items(limit int) []models.ChatItem {
	lang := uc.translator.CurrentLanguage()
	events := uc.events.Events()

	items := make([]models.ChatItem, 0, len(events))
	for _, e := range events {
		if item, ok := models.ChatItemFromEvent(e, lang); ok {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Time > items[j].Time })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
