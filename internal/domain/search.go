package domain

// SearchFilter описывает параметры выборки заявок.
// Пустые значения означают «фильтр не применяется».
type SearchFilter struct {
	Status      ApprovalStatus // равенство по статусу
	RequesterID string         // равенство по автору
	Search      string         // подстрока в title/description без учета регистра
	Page        int            // нумерация с 1
	PageSize    int
}

// Normalize приводит пагинацию к безопасным значениям.
// Границы совпадают с валидацией на хэндлере, но repo не должен
// доверять вызывающему слою слепо.
func (f *SearchFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 10
	}
	if f.PageSize > 100 {
		f.PageSize = 100
	}
}

// Offset для SQL-запроса (страницы с единицы).
func (f *SearchFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}
