/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Character is a single face on the board. Characters are shared by value
// across every session and never change after start-up.
type Character struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Gender      string `json:"gender"`
}

// Catalog is the ordered, read-only list of playable characters.
type Catalog struct {
	characters []Character
	byID       map[int]Character
}

var defaultCharacters = []Character{
	{ID: 1, Name: "Amara", Description: "Young woman, dark skin, curly hair, red shirt", Image: "character1.png", Gender: "female"},
	{ID: 2, Name: "Harold", Description: "Elderly man, bald, glasses, blue sweater", Image: "character2.png", Gender: "male"},
	{ID: 3, Name: "Tommy", Description: "Teen boy, light skin, freckles, baseball cap", Image: "character3.png", Gender: "male"},
	{ID: 4, Name: "Linda", Description: "Middle-aged woman, blonde hair, green dress", Image: "character4.png", Gender: "female"},
	{ID: 5, Name: "Raj", Description: "Man with beard, turban, yellow shirt", Image: "character5.png", Gender: "male"},
	{ID: 6, Name: "Fatima", Description: "Woman with hijab, purple clothing", Image: "character6.png", Gender: "female"},
	{ID: 7, Name: "Kenji", Description: "Asian man, short black hair, gray hoodie", Image: "character7.png", Gender: "male"},
	{ID: 8, Name: "Zoe", Description: "Woman with pink dyed hair, nose ring, denim jacket", Image: "character8.png", Gender: "female"},
	{ID: 9, Name: "Tex", Description: "Man with mustache, cowboy hat, plaid shirt", Image: "character9.png", Gender: "male"},
	{ID: 10, Name: "Maya", Description: "Woman with braids, hoop earrings, orange blouse", Image: "character10.png", Gender: "female"},
	{ID: 11, Name: "Marcus", Description: "Man with afro, sunglasses, leather jacket", Image: "character11.png", Gender: "male"},
	{ID: 12, Name: "Eleanor", Description: "Elderly woman, white hair bun, floral dress", Image: "character12.png", Gender: "female"},
	{ID: 13, Name: "Sophie", Description: "Young girl, ponytail, striped shirt", Image: "character13.png", Gender: "female"},
	{ID: 14, Name: "Rex", Description: "Man with buzzcut, tattoo on neck, black t-shirt", Image: "character14.png", Gender: "male"},
	{ID: 15, Name: "Claire", Description: "Woman with short bob haircut, glasses, cardigan", Image: "character15.png", Gender: "female"},
	{ID: 16, Name: "DJ", Description: "Man with spiky hair, headphones around neck", Image: "character16.png", Gender: "male"},
	{ID: 17, Name: "River", Description: "Person with green hair, piercings, hoodie", Image: "character17.png", Gender: "neutral"},
	{ID: 18, Name: "Aurora", Description: "Woman with hat, scarf, and coat", Image: "character18.png", Gender: "female"},
	{ID: 19, Name: "Jamal", Description: "Man with dreadlocks, casual t-shirt", Image: "character19.png", Gender: "male"},
	{ID: 20, Name: "Blake", Description: "Young man, messy blonde hair, hoodie", Image: "character20.png", Gender: "male"},
	{ID: 21, Name: "Victoria", Description: "Woman with long straight hair, red lipstick, formal blouse", Image: "character21.png", Gender: "female"},
	{ID: 22, Name: "Bear", Description: "Man with long beard, beanie, casual jacket", Image: "character22.png", Gender: "male"},
	{ID: 23, Name: "Sunny", Description: "Woman with curly short hair, yellow dress", Image: "character23.png", Gender: "female"},
	{ID: 24, Name: "Oliver", Description: "Man with medium-length hair, suit and tie", Image: "character24.png", Gender: "male"},
}

func newCatalog(characters []Character) (*Catalog, error) {
	if len(characters) == 0 {
		return nil, errors.New("catalog contains no characters")
	}

	c := &Catalog{
		characters: make([]Character, len(characters)),
		byID:       make(map[int]Character, len(characters)),
	}
	copy(c.characters, characters)

	for _, ch := range c.characters {
		if ch.ID < 1 {
			return nil, fmt.Errorf("character %q has invalid id %d", ch.Name, ch.ID)
		}
		if _, exists := c.byID[ch.ID]; exists {
			return nil, fmt.Errorf("duplicate character id %d", ch.ID)
		}
		c.byID[ch.ID] = ch
	}

	return c, nil
}

// defaultCatalog returns the built-in 24 character board.
func defaultCatalog() *Catalog {
	c, err := newCatalog(defaultCharacters)
	if err != nil {
		panic("built-in catalog is invalid: " + err.Error())
	}
	return c
}

// loadCatalog reads a JSON array of characters from path.
func loadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var characters []Character
	if err := json.Unmarshal(data, &characters); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return newCatalog(characters)
}

// All returns a copy of the catalog in board order.
func (c *Catalog) All() []Character {
	out := make([]Character, len(c.characters))
	copy(out, c.characters)
	return out
}

func (c *Catalog) Lookup(id int) (Character, bool) {
	ch, ok := c.byID[id]
	return ch, ok
}

func (c *Catalog) Len() int {
	return len(c.characters)
}
