package memory

import "github.com/jhoicas/marketplace-api/internal/domain/repository"

func paginate[T any](items []T, page repository.Page) []T {
	page = page.Normalize()
	if page.Offset >= len(items) {
		return nil
	}
	end := page.Offset + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[page.Offset:end]
}
