package rubric

var piCategories = []Category{
	{ID: "communication", Name: "Communication", Max: 10, SubFields: []SubField{
		{ID: "clarity", Name: "Clarity", Max: 4},
		{ID: "fluency", Name: "Fluency", Max: 3},
		{ID: "vocabulary", Name: "Vocabulary", Max: 3},
	}},
	{ID: "technicalKnowledge", Name: "Technical Knowledge", Max: 10, SubFields: []SubField{
		{ID: "fundamentals", Name: "Fundamentals", Max: 5},
		{ID: "application", Name: "Application", Max: 5},
	}},
	{ID: "problemSolving", Name: "Problem Solving", Max: 10, SubFields: []SubField{
		{ID: "approach", Name: "Approach", Max: 5},
		{ID: "reasoning", Name: "Reasoning", Max: 5},
	}},
	{ID: "confidence", Name: "Confidence", Max: 10, SubFields: []SubField{
		{ID: "composure", Name: "Composure", Max: 5},
		{ID: "eyeContact", Name: "Eye Contact", Max: 5},
	}},
	{ID: "bodyLanguage", Name: "Body Language", Max: 10, SubFields: []SubField{
		{ID: "posture", Name: "Posture", Max: 5},
		{ID: "gestures", Name: "Gestures", Max: 5},
	}},
	{ID: "attitude", Name: "Attitude", Max: 10, SubFields: []SubField{
		{ID: "positivity", Name: "Positivity", Max: 5},
		{ID: "openness", Name: "Openness to Feedback", Max: 5},
	}},
	{ID: "selfAwareness", Name: "Self Awareness", Max: 10, SubFields: []SubField{
		{ID: "strengths", Name: "Strengths and Weaknesses", Max: 5},
		{ID: "goals", Name: "Career Goals", Max: 5},
	}},
	{ID: "domainKnowledge", Name: "Domain Knowledge", Max: 10, SubFields: []SubField{
		{ID: "industry", Name: "Industry Awareness", Max: 5},
		{ID: "currentAffairs", Name: "Current Affairs", Max: 5},
	}},
	{ID: "presentation", Name: "Presentation", Max: 10, SubFields: []SubField{
		{ID: "grooming", Name: "Grooming", Max: 4},
		{ID: "etiquette", Name: "Etiquette", Max: 3},
		{ID: "punctuality", Name: "Punctuality", Max: 3},
	}},
	{ID: "listening", Name: "Listening", Max: 10, SubFields: []SubField{
		{ID: "attentiveness", Name: "Attentiveness", Max: 5},
		{ID: "responsiveness", Name: "Responsiveness", Max: 5},
	}},
}
