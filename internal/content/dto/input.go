package dto

type TestimonialInput struct {
	AuthorName   string
	AuthorTitle  string
	Institution  string
	ContentEn    string
	ContentBn    string
	Rating       int
	IsActive     *bool
	DisplayOrder int
}

type LogoInput struct {
	Name         string
	LogoURL      string
	WebsiteURL   string
	IsActive     *bool
	DisplayOrder int
}
