package catalog

// defaultDishes keep the pipeline usable when the dish source is missing.
// Every meal type has vegetarian and Jain-compatible options.
var defaultDishes = []Dish{
	{Name: "Vegetable Poha", Region: "West India", MealTypeRaw: "Breakfast", VegType: "Vegetarian", Calories: 270, ProteinG: 6, CarbsG: 48, FatG: 7, Quantity: "1 plate (200g)", Ingredients: "flattened rice, peas, peanuts, curry leaves, mustard seeds, turmeric, lemon"},
	{Name: "Moong Dal Chilla", Region: "North India", MealTypeRaw: "Breakfast/Snack", VegType: "Vegetarian", Calories: 240, ProteinG: 14, CarbsG: 30, FatG: 7, Quantity: "2 pieces (160g)", Ingredients: "moong dal, green chilli, coriander, cumin, oil"},
	{Name: "Idli with Sambar", Region: "South India", MealTypeRaw: "Breakfast", VegType: "Vegetarian", Calories: 300, ProteinG: 11, CarbsG: 55, FatG: 4, Quantity: "3 idlis (150g) + 1 bowl sambar (150g)", Ingredients: "rice, urad dal, toor dal, drumstick, tamarind, onion, tomato"},
	{Name: "Masala Omelette with Toast", Region: "Pan-India", MealTypeRaw: "Breakfast", VegType: "Eggetarian", Calories: 320, ProteinG: 18, CarbsG: 26, FatG: 16, Quantity: "2 eggs (120g) + 2 slices (60g)", Ingredients: "egg, onion, tomato, green chilli, whole wheat bread"},
	{Name: "Vegetable Upma", Region: "South India", MealTypeRaw: "Breakfast", VegType: "Vegetarian", Calories: 280, ProteinG: 7, CarbsG: 45, FatG: 8, Quantity: "1 bowl (200g)", Ingredients: "semolina, beans, peas, mustard seeds, curry leaves, oil"},
	{Name: "Dal Tadka with Brown Rice", Region: "North India", MealTypeRaw: "Lunch/Dinner", VegType: "Vegetarian", Calories: 450, ProteinG: 18, CarbsG: 75, FatG: 8, Quantity: "1 bowl dal (150g) + 1 cup rice (150g)", Ingredients: "toor dal, brown rice, tomato, turmeric, cumin, asafoetida"},
	{Name: "Rajma Chawal", Region: "North India", MealTypeRaw: "Lunch", VegType: "Vegetarian", Calories: 480, ProteinG: 17, CarbsG: 80, FatG: 9, Quantity: "1 bowl rajma (150g) + 1 cup rice (150g)", Ingredients: "kidney beans, rice, tomato, onion, garlic, ginger"},
	{Name: "Paneer Bhurji with Roti", Region: "North India", MealTypeRaw: "Lunch/Dinner", VegType: "Vegetarian", Calories: 420, ProteinG: 22, CarbsG: 35, FatG: 20, Quantity: "1 bowl bhurji (120g) + 2 rotis (80g)", Ingredients: "paneer, capsicum, tomato, whole wheat flour, turmeric"},
	{Name: "Lemon Rice with Curd", Region: "South India", MealTypeRaw: "Lunch", VegType: "Vegetarian", Calories: 430, ProteinG: 10, CarbsG: 72, FatG: 11, Quantity: "1 plate (200g) + 1 bowl curd (100g)", Ingredients: "rice, lemon, peanuts, curry leaves, curd"},
	{Name: "Grilled Chicken with Quinoa", Region: "Pan-India", MealTypeRaw: "Lunch/Dinner", VegType: "Non-Vegetarian", Calories: 470, ProteinG: 38, CarbsG: 40, FatG: 14, Quantity: "1 breast (150g) + 1 cup quinoa (150g)", Ingredients: "chicken, quinoa, lemon, pepper, olive oil"},
	{Name: "Fish Curry with Rice", Region: "East India", MealTypeRaw: "Lunch/Dinner", VegType: "Non-Vegetarian", Calories: 500, ProteinG: 30, CarbsG: 60, FatG: 14, Quantity: "1 bowl curry (200g) + 1 cup rice (150g)", Ingredients: "rohu fish, mustard oil, tomato, turmeric, rice"},
	{Name: "Vegetable Khichdi", Region: "Pan-India", MealTypeRaw: "Dinner", VegType: "Vegetarian", Calories: 380, ProteinG: 13, CarbsG: 62, FatG: 8, Quantity: "1 bowl (250g)", Ingredients: "rice, moong dal, peas, beans, turmeric, cumin, ghee"},
	{Name: "Mixed Dal with Jowar Roti", Region: "West India", MealTypeRaw: "Dinner", VegType: "Vegetarian", Calories: 400, ProteinG: 17, CarbsG: 62, FatG: 9, Quantity: "1 bowl dal (150g) + 2 rotis (90g)", Ingredients: "mixed lentils, jowar flour, tomato, cumin"},
	{Name: "Roasted Chana", Region: "Pan-India", MealTypeRaw: "Snack", VegType: "Vegetarian", Calories: 150, ProteinG: 8, CarbsG: 22, FatG: 3, Quantity: "1 small bowl (40g)", Ingredients: "roasted chickpeas, black salt"},
	{Name: "Fruit Bowl", Region: "Pan-India", MealTypeRaw: "Snack/Breakfast", VegType: "Vegetarian", Calories: 120, ProteinG: 2, CarbsG: 28, FatG: 1, Quantity: "1 bowl (200g)", Ingredients: "papaya, apple, guava, pomegranate"},
	{Name: "Sprouts Salad", Region: "West India", MealTypeRaw: "Snack", VegType: "Vegetarian", Calories: 140, ProteinG: 9, CarbsG: 20, FatG: 2, Quantity: "1 bowl (150g)", Ingredients: "moong sprouts, cucumber, tomato, lemon, coriander"},
	{Name: "Buttermilk", Region: "Pan-India", MealTypeRaw: "Snack", VegType: "Vegetarian", Calories: 60, ProteinG: 3, CarbsG: 5, FatG: 2, Quantity: "1 glass (250ml)", Ingredients: "curd, water, cumin, coriander"},
	{Name: "Boiled Egg Chaat", Region: "Pan-India", MealTypeRaw: "Snack", VegType: "Eggetarian", Calories: 160, ProteinG: 12, CarbsG: 4, FatG: 10, Quantity: "2 eggs (100g)", Ingredients: "egg, onion, tomato, chaat masala"},
}

// Default returns a catalog of the built-in dishes.
func Default() *Catalog {
	rules := DefaultRules()
	dishes := make([]Dish, len(defaultDishes))
	for i, d := range defaultDishes {
		d.MealTypes = SplitMealTypes(d.MealTypeRaw)
		d.Class = Classify(d.VegType, d.Name, d.Ingredients, rules)
		dishes[i] = d
	}
	return &Catalog{source: "builtin", dishes: dishes}
}
