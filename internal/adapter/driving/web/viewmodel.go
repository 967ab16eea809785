package web

import (
	"net/url"
	"strings"

	vm "github.com/ericfisherdev/streamhub/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/streamhub/internal/application"
	"github.com/ericfisherdev/streamhub/internal/domain/model"
)

const dateLayout = "Jan 2, 2006"

var sortLabels = []struct {
	sort  model.VideoSort
	label string
}{
	{model.SortNewest, "Newest first"},
	{model.SortOldest, "Oldest first"},
	{model.SortPopular, "Most viewed"},
}

func videoPath(id model.ID, suffix string) string {
	return "/videos/" + url.PathEscape(id.String()) + suffix
}

func toVideoCard(v model.Video) vm.VideoCard {
	card := vm.VideoCard{
		ID:         v.ID.String(),
		Title:      v.Title,
		Thumbnail:  v.Thumbnail,
		Username:   v.Username,
		Views:      v.Views,
		PlayerPath: videoPath(v.ID, ""),
		EditPath:   videoPath(v.ID, "/edit"),
		DeletePath: videoPath(v.ID, "/delete"),
	}
	if !v.CreatedAt.IsZero() {
		card.Uploaded = v.CreatedAt.Local().Format(dateLayout)
	}
	return card
}

func toVideoCards(videos []model.Video) []vm.VideoCard {
	cards := make([]vm.VideoCard, 0, len(videos))
	for _, v := range videos {
		cards = append(cards, toVideoCard(v))
	}
	return cards
}

// sortOptions marks sort as selected, falling back to newest for anything
// the backend does not understand.
func sortOptions(sort model.VideoSort) []vm.SortOption {
	if !sort.Valid() {
		sort = model.SortNewest
	}
	opts := make([]vm.SortOption, 0, len(sortLabels))
	for _, s := range sortLabels {
		opts = append(opts, vm.SortOption{
			Value:    string(s.sort),
			Label:    s.label,
			Selected: s.sort == sort,
		})
	}
	return opts
}

func toPlayer(v model.Video) vm.Player {
	return vm.Player{
		Video:           toVideoCard(v),
		DescriptionHTML: RenderMarkdown(v.Description),
		StreamPath:      videoPath(v.ID, "/stream"),
		StartPath:       videoPath(v.ID, "/stream/start"),
		StopPath:        videoPath(v.ID, "/stream/stop"),
		RestartPath:     videoPath(v.ID, "/stream/restart"),
	}
}

func toUser(u *model.User) *vm.User {
	if u == nil {
		return nil
	}
	return &vm.User{Name: u.DisplayName(), Email: u.Email}
}

func toFlashes(ns []model.Notification) []vm.Flash {
	flashes := make([]vm.Flash, 0, len(ns))
	for _, n := range ns {
		flashes = append(flashes, vm.Flash{Level: string(n.Level), Message: n.Message})
	}
	return flashes
}

func uploadAccept() string {
	return strings.Join(application.VideoExtensions, ",")
}
