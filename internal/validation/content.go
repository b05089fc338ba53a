package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Comment length bounds, applied to trimmed content.
const (
	CommentMinLength = 10
	CommentMaxLength = 1000
)

var tagColorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ValidateCommentContent enforces the comment length rules on trimmed input.
func ValidateCommentContent(content string) error {
	trimmed := strings.TrimSpace(content)
	if len(trimmed) < CommentMinLength {
		return fmt.Errorf("Comment must be at least %d characters long.", CommentMinLength)
	}
	if len(trimmed) > CommentMaxLength {
		return fmt.Errorf("Comment cannot exceed %d characters.", CommentMaxLength)
	}
	return nil
}

// ValidatePostTitle enforces the post title bounds.
func ValidatePostTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if len(trimmed) < 5 {
		return fmt.Errorf("Title must be at least 5 characters long.")
	}
	if len(trimmed) > 200 {
		return fmt.Errorf("Title cannot exceed 200 characters.")
	}
	return nil
}

// ValidatePostContent enforces the minimum post body length.
func ValidatePostContent(content string) error {
	if len(strings.TrimSpace(content)) < 20 {
		return fmt.Errorf("Content must be at least 20 characters long.")
	}
	return nil
}

// ValidateTagName enforces tag name bounds on trimmed input.
func ValidateTagName(name string) error {
	trimmed := strings.TrimSpace(name)
	if len(trimmed) < 2 {
		return fmt.Errorf("Tag name must be at least 2 characters long.")
	}
	if len(trimmed) > 50 {
		return fmt.Errorf("Tag name cannot exceed 50 characters.")
	}
	return nil
}

// ValidateTagColor requires a #RRGGBB hex value.
func ValidateTagColor(color string) error {
	if !tagColorRe.MatchString(color) {
		return fmt.Errorf("Color must be a hex value like #3490dc.")
	}
	return nil
}
