package rubric

var gdCategories = []Category{
	{ID: "communication", Name: "Communication Skills", Max: 10},
	{ID: "subjectKnowledge", Name: "Subject Knowledge", Max: 10},
	{ID: "leadership", Name: "Leadership", Max: 10},
	{ID: "listening", Name: "Active Listening", Max: 10},
	{ID: "bodyLanguage", Name: "Body Language", Max: 10},
}
