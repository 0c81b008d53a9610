package main

import "math/rand"

// TaskCatalog hands out category prompts for new rounds.
type TaskCatalog struct {
	tasks []string
}

func newTaskCatalog(tasks []string) *TaskCatalog {
	if len(tasks) == 0 {
		tasks = defaultTasks
	}
	return &TaskCatalog{tasks: tasks}
}

func (tc *TaskCatalog) Len() int {
	return len(tc.tasks)
}

// Random returns a uniformly chosen prompt.
func (tc *TaskCatalog) Random(rng *rand.Rand) string {
	return tc.tasks[rng.Intn(len(tc.tasks))]
}

// RandomExcept returns a prompt different from current whenever the
// catalog holds more than one entry.
func (tc *TaskCatalog) RandomExcept(rng *rand.Rand, current string) string {
	task := tc.Random(rng)
	for task == current && len(tc.tasks) > 1 {
		task = tc.Random(rng)
	}
	return task
}

var defaultTasks = []string{
	// Brands
	"Name brands of CARS", "Name types of CHEESE", "Name Luxury Fashion Brands", "Name Fast Food Chains",
	"Name Soda Brands", "Name Smartphone Manufacturers", "Name Shoe Brands", "Name Cereal Brands",
	"Name Car Rental Companies", "Name Airline Companies", "Name Makeup Brands", "Name Video Game Consoles",

	// Geography
	"Name countries in AFRICA", "Name Capital Cities in Europe", "Name US States", "Name Rivers in the World",
	"Name Mountains", "Name Islands in the Caribbean", "Name Countries starting with S", "Name Cities in Japan",
	"Name Oceans and Seas", "Name Deserts", "Name Australian Cities", "Name Countries in South America",

	// Pop culture
	"Name Harry Potter characters", "Name Marvel Movies", "Name Star Wars Characters", "Name Pokémon",
	"Name Pixar Movies", "Name Game of Thrones Houses", "Name Friends Characters", "Name Taylor Swift Songs",
	"Name James Bond Actors", "Name Netflix Original Series", "Name Disney Princesses", "Name Rappers",
	"Name Rock Bands from the 70s", "Name Oscar Winning Movies", "Name Anime Series", "Name Superheroes",

	// Knowledge
	"Name Programming Languages", "Name Elements on the Periodic Table", "Name Bones in the Human Body",
	"Name Planets in the Solar System", "Name Breeds of Dogs", "Name Types of Pasta", "Name Fruits that are Red",
	"Name Vegetables that grow underground", "Name Currency names", "Name Mathematical Shapes",
	"Name Chess Pieces", "Name Musical Instruments", "Name Languages spoken in India", "Name Nobel Prize Winners",

	// Misc
	"Name Things you find in a Bathroom", "Name Things that are Sticky", "Name Things that are Yellow",
	"Name Things you bring Camping", "Name Jobs that require a Uniform", "Name Sports played with a Ball",
	"Name Board Games", "Name Card Games", "Name Pizza Toppings", "Name Ice Cream Flavors",
}
