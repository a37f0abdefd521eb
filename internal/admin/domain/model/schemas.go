package model

// UserSchema validates the user form: names and email between 3 and 100
// characters, password between 8 and 20.
func UserSchema() Schema[User] {
	return Schema[User]{
		Resource: ResourceUser,
		Entity:   "User",
		Fields: []FieldSpec[User]{
			{Name: "firstName", Get: func(u User) string { return u.FirstName }, Rules: []Rule{Required(), MinLen(3), MaxLen(100)}},
			{Name: "lastName", Get: func(u User) string { return u.LastName }, Rules: []Rule{Required(), MinLen(3), MaxLen(100)}},
			{Name: "email", Get: func(u User) string { return u.Email }, Rules: []Rule{Required(), Email(), MinLen(3), MaxLen(100)}},
			{Name: "password", Get: func(u User) string { return u.Password }, Rules: []Rule{Required(), MinLen(8), MaxLen(20)}},
		},
	}
}

// PageSchema validates the page form. Slugs are additionally restricted to
// lowercase URL-safe characters.
func PageSchema() Schema[Page] {
	return Schema[Page]{
		Resource: ResourcePage,
		Entity:   "Page",
		Fields: []FieldSpec[Page]{
			{Name: "title", Get: func(p Page) string { return p.Title }, Rules: []Rule{Required(), MinLen(3), MaxLen(100)}},
			{Name: "slug", Get: func(p Page) string { return p.Slug }, Rules: []Rule{
				Required(), MinLen(3), MaxLen(100),
				MustExpr(`value.matches('^[a-z0-9]+(-[a-z0-9]+)*$')`, "Use lowercase letters, digits and dashes"),
			}},
			{Name: "content", Get: func(p Page) string { return p.Content }, Rules: []Rule{Required(), MinLen(3), MaxLen(500)}},
		},
	}
}
